package platform

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMethodChannelInvokeReachesBridge(t *testing.T) {
	bridge := SetupRecordingBridge(t.Cleanup)

	ch := NewMethodChannel("test/invoke")
	t.Cleanup(ch.Close)

	if _, err := ch.Invoke("onMapError", "surface lost"); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	calls := bridge.CallsOn("test/invoke")
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Method != "onMapError" {
		t.Errorf("method = %q, want onMapError", calls[0].Method)
	}
	if calls[0].Args != "surface lost" {
		t.Errorf("args = %v, want %q", calls[0].Args, "surface lost")
	}
}

func TestMethodChannelInvokeWithoutBridge(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	ch := NewMethodChannel("test/unavailable")
	t.Cleanup(ch.Close)

	if _, err := ch.Invoke("ping", nil); !errors.Is(err, ErrPlatformUnavailable) {
		t.Fatalf("Invoke without bridge: got %v, want ErrPlatformUnavailable", err)
	}
}

func TestMethodChannelInvokeBridgeError(t *testing.T) {
	bridge := SetupRecordingBridge(t.Cleanup)
	bridge.Err = &ChannelError{Code: "E_NATIVE", Message: "no activity"}

	ch := NewMethodChannel("test/failing")
	t.Cleanup(ch.Close)

	_, err := ch.Invoke("onMapReady", nil)
	var chErr *ChannelError
	if !errors.As(err, &chErr) || chErr.Code != "E_NATIVE" {
		t.Fatalf("expected ChannelError E_NATIVE, got %v", err)
	}
}

func TestMethodChannelClose(t *testing.T) {
	bridge := SetupRecordingBridge(t.Cleanup)

	ch := NewMethodChannel("test/close")
	if !HasMethodChannel("test/close") {
		t.Fatal("channel should be registered")
	}

	ch.Close()
	ch.Close()

	if HasMethodChannel("test/close") {
		t.Error("channel should be unregistered after Close")
	}
	if !ch.IsClosed() {
		t.Error("IsClosed should be true")
	}
	if _, err := ch.Invoke("onMapReady", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Invoke after Close: got %v, want ErrClosed", err)
	}
	if len(bridge.Calls()) != 0 {
		t.Errorf("closed channel reached the bridge: %+v", bridge.Calls())
	}
}

func TestCloseKeepsReplacementChannel(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	old := NewMethodChannel("test/replace")
	replacement := NewMethodChannel("test/replace")
	t.Cleanup(replacement.Close)

	old.Close()
	if !HasMethodChannel("test/replace") {
		t.Error("closing a replaced channel must not unregister its replacement")
	}
}

func TestHandleMethodCallRoutesToHandler(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	ch := NewMethodChannel("test/inbound")
	t.Cleanup(ch.Close)

	var gotMethod string
	var gotArgs any
	ch.SetHandler(func(method string, args any) (any, error) {
		gotMethod = method
		gotArgs = args
		return map[string]any{"ok": true}, nil
	})

	out, err := HandleMethodCall("test/inbound", "create", []byte(`{"viewId":4}`))
	if err != nil {
		t.Fatalf("HandleMethodCall: %v", err)
	}
	if gotMethod != "create" {
		t.Errorf("method = %q, want create", gotMethod)
	}
	if m, ok := gotArgs.(map[string]any); !ok || m["viewId"] != float64(4) {
		t.Errorf("args = %#v", gotArgs)
	}

	var result map[string]any
	if err := json.Unmarshal(out, &result); err != nil || result["ok"] != true {
		t.Errorf("result = %s (%v)", out, err)
	}
}

func TestHandleMethodCallErrors(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	if _, err := HandleMethodCall("test/missing", "x", nil); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("unknown channel: got %v, want ErrChannelNotFound", err)
	}

	ch := NewMethodChannel("test/nohandler")
	t.Cleanup(ch.Close)
	if _, err := HandleMethodCall("test/nohandler", "x", nil); !errors.Is(err, ErrMethodNotFound) {
		t.Errorf("no handler: got %v, want ErrMethodNotFound", err)
	}

	if _, err := HandleMethodCall("test/nohandler", "x", []byte("{")); err == nil {
		t.Error("malformed args should fail to decode")
	}
}

func TestEventChannelDispatch(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	ch := NewEventChannel("test/events")
	var events []any
	var errs []error
	done := 0
	sub := ch.Listen(EventHandler{
		OnEvent: func(data any) { events = append(events, data) },
		OnError: func(err error) { errs = append(errs, err) },
		OnDone:  func() { done++ },
	})

	if err := HandleEvent("test/events", []byte(`{"n":1}`)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if err := HandleEvent("test/events", []byte(`{`)); err == nil {
		t.Error("malformed event should return an error")
	}
	if err := HandleEventError("test/events", "E", "boom"); err != nil {
		t.Fatalf("HandleEventError: %v", err)
	}

	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
	if len(errs) != 2 {
		t.Errorf("expected 2 errors (decode + stream), got %d", len(errs))
	}

	if err := HandleEventDone("test/events"); err != nil {
		t.Fatalf("HandleEventDone: %v", err)
	}
	if done != 1 || !sub.IsCanceled() {
		t.Errorf("done=%d canceled=%v, want 1/true", done, sub.IsCanceled())
	}

	_ = HandleEvent("test/events", []byte(`{"n":2}`))
	if len(events) != 1 {
		t.Error("events after done must not be delivered")
	}
}

func TestHandleEventUnknownChannel(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	if err := HandleEvent("test/nowhere", nil); !errors.Is(err, ErrChannelNotRegistered) {
		t.Errorf("got %v, want ErrChannelNotRegistered", err)
	}
}

func TestDispatchOrRun(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	ran := false
	DispatchOrRun(func() { ran = true })
	if !ran {
		t.Error("callback should run inline without a dispatcher")
	}

	var queued []func()
	RegisterDispatch(func(cb func()) { queued = append(queued, cb) })
	ran = false
	DispatchOrRun(func() { ran = true })
	if ran || len(queued) != 1 {
		t.Fatalf("callback should be queued, ran=%v queued=%d", ran, len(queued))
	}
	queued[0]()
	if !ran {
		t.Error("queued callback did not run")
	}
}
