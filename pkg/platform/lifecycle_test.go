package platform

import (
	"errors"
	"testing"

	bridgeerrors "github.com/go-drift/mapbridge/pkg/errors"
)

func TestLifecycleEventUpdatesState(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	var got []LifecycleState
	remove := Lifecycle.AddHandler(func(s LifecycleState) { got = append(got, s) })
	defer remove()

	if err := HandleEvent(lifecycleEventsName, []byte(`{"state":"paused"}`)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if !Lifecycle.IsPaused() {
		t.Errorf("state = %q, want paused", Lifecycle.State())
	}

	// Same state again is not a transition.
	_ = HandleEvent(lifecycleEventsName, []byte(`{"state":"paused"}`))
	_ = HandleEvent(lifecycleEventsName, []byte(`{"state":"resumed"}`))

	want := []LifecycleState{LifecycleStatePaused, LifecycleStateResumed}
	if len(got) != len(want) {
		t.Fatalf("handler calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLifecycleRejectsUnknownState(t *testing.T) {
	SetupTestBridge(t.Cleanup)
	c := bridgeerrors.CollectForTest(t.Cleanup)

	_ = HandleEvent(lifecycleEventsName, []byte(`{"state":"sleeping"}`))
	_ = HandleEvent(lifecycleEventsName, []byte(`"paused"`))

	if !Lifecycle.IsResumed() {
		t.Errorf("state changed to %q on bad input", Lifecycle.State())
	}
	errs := c.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 parse errors reported, got %d", len(errs))
	}
	var pe *bridgeerrors.ParseError
	if !errors.As(errs[0], &pe) || errs[0].Kind != bridgeerrors.KindParsing {
		t.Errorf("unexpected report %v", errs[0])
	}
}

func TestLifecycleMethodCall(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	if _, err := HandleMethodCall(lifecycleChannelName, "didChangeState", []byte(`{"state":"detached"}`)); err != nil {
		t.Fatalf("didChangeState: %v", err)
	}
	if Lifecycle.State() != LifecycleStateDetached {
		t.Errorf("state = %q, want detached", Lifecycle.State())
	}

	if _, err := HandleMethodCall(lifecycleChannelName, "didChangeState", []byte(`{}`)); !errors.Is(err, ErrInvalidArguments) {
		t.Errorf("missing state: got %v, want ErrInvalidArguments", err)
	}
	if _, err := HandleMethodCall(lifecycleChannelName, "other", nil); !errors.Is(err, ErrMethodNotFound) {
		t.Errorf("unknown method: got %v, want ErrMethodNotFound", err)
	}
}

func TestLifecycleRemoveHandler(t *testing.T) {
	SetupTestBridge(t.Cleanup)

	var a, b int
	removeA := Lifecycle.AddHandler(func(LifecycleState) { a++ })
	Lifecycle.AddHandler(func(LifecycleState) { b++ })

	removeA()
	removeA()
	Lifecycle.updateState(LifecycleStatePaused)

	if a != 0 || b != 1 {
		t.Errorf("a=%d b=%d, want 0/1", a, b)
	}
}

func TestResetForTestRestoresLifecycle(t *testing.T) {
	SetupTestBridge(t.Cleanup)
	Lifecycle.updateState(LifecycleStatePaused)

	ResetForTest()
	SetNativeBridge(noopBridge{})

	if !Lifecycle.IsResumed() {
		t.Errorf("state = %q after reset, want resumed", Lifecycle.State())
	}
	// The built-in listener is re-registered.
	_ = HandleEvent(lifecycleEventsName, []byte(`{"state":"paused"}`))
	if !Lifecycle.IsPaused() {
		t.Error("lifecycle listener not restored by ResetForTest")
	}
}
