package errors

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/go-drift/mapbridge/pkg/log"
)

func TestBridgeErrorString(t *testing.T) {
	err := &BridgeError{
		Op:   "mapkit.Activate",
		Kind: KindActivation,
		Err:  stderrors.New("engine start failed"),
	}
	want := "mapkit.Activate [activation]: engine start failed"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestBridgeErrorWithViewAndChannel(t *testing.T) {
	err := &BridgeError{
		Op:      "mapview.notify",
		Kind:    KindPlatform,
		ViewID:  3,
		Channel: "yandex_mapkit/map_controller_3",
		Err:     &ParseError{Channel: "yandex_mapkit/map_controller_3", DataType: "Ack", Got: nil},
	}
	got := err.Error()
	for _, want := range []string{"view=3", "channel=yandex_mapkit/map_controller_3", "[platform]"} {
		if !strings.Contains(got, want) {
			t.Errorf("error string %q should contain %q", got, want)
		}
	}
}

func TestBridgeErrorUnwrap(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := &BridgeError{Op: "x", Err: sentinel}
	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is should see through BridgeError")
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindPlatform, "platform"},
		{KindParsing, "parsing"},
		{KindInit, "init"},
		{KindActivation, "activation"},
		{KindConstruction, "construction"},
		{KindSurface, "surface"},
		{KindPanic, "panic"},
		{ErrorKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{Value: "test panic", Timestamp: time.Now()}
	if got, want := err.Error(), "panic: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}

	err.Op = "mapview.Start"
	if got, want := err.Error(), "panic in mapview.Start: test panic"; got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	c := CollectForTest(t.Cleanup)

	Report(&BridgeError{Op: "test.op", Kind: KindInit, Err: stderrors.New("bad key")})
	Report(nil)

	errs := c.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(errs))
	}
	if errs[0].Op != "test.op" {
		t.Errorf("Op = %q, want %q", errs[0].Op, "test.op")
	}
	if errs[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestRecover(t *testing.T) {
	c := CollectForTest(t.Cleanup)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	panics := c.Panics()
	if len(panics) != 1 {
		t.Fatalf("expected 1 panic, got %d", len(panics))
	}
	if panics[0].Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", panics[0].Value, "intentional test panic")
	}
	if panics[0].Op != "test.recover" {
		t.Errorf("Op = %q, want %q", panics[0].Op, "test.recover")
	}
}

func TestRecoverWithCallback(t *testing.T) {
	CollectForTest(t.Cleanup)

	var got any
	func() {
		defer RecoverWithCallback("test.callback", func(r any) { got = r })
		panic(42)
	}()
	if got != 42 {
		t.Errorf("callback got %v, want 42", got)
	}
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if !strings.Contains(stack, "testing") && !strings.Contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

func TestSetHandlerNil(t *testing.T) {
	old := getHandler()
	t.Cleanup(func() { SetHandler(old) })

	SetHandler(nil)
	if _, ok := getHandler().(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", getHandler())
	}
}

func TestLogHandlerWritesThroughLogger(t *testing.T) {
	rec := log.NewRecorder()
	h := &LogHandler{Logger: rec, Verbose: true}

	h.HandleError(&BridgeError{
		Op:         "mapkit.Deactivate",
		Kind:       KindActivation,
		ViewID:     9,
		Err:        stderrors.New("imbalanced"),
		StackTrace: "frame",
	})
	h.HandlePanic(&PanicError{Op: "mapview.Create", Value: "boom"})
	h.HandleError(nil)

	entries := rec.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	keys := map[string]bool{}
	for _, f := range entries[0].Fields {
		keys[f.Key] = true
	}
	for _, k := range []string{"op", "kind", "error", "view_id", "stack"} {
		if !keys[k] {
			t.Errorf("error entry missing field %q", k)
		}
	}
	if entries[1].Message != "mapbridge panic" {
		t.Errorf("panic entry message = %q", entries[1].Message)
	}
}
