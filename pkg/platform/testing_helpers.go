package platform

import "sync"

// noopBridge is a NativeBridge that accepts all calls without side effects.
type noopBridge struct{}

func (noopBridge) InvokeMethod(channel, method string, args []byte) ([]byte, error) {
	return DefaultCodec.Encode(nil)
}
func (noopBridge) StartEventStream(string) error { return nil }
func (noopBridge) StopEventStream(string) error  { return nil }

// SetupTestBridge installs a no-op native bridge and synchronous dispatch
// function for testing. The cleanup function should be testing.T.Cleanup or
// equivalent; it registers a teardown that calls ResetForTest.
//
//	platform.SetupTestBridge(t.Cleanup)
func SetupTestBridge(cleanup func(func())) {
	SetNativeBridge(noopBridge{})
	RegisterDispatch(func(cb func()) { cb() })
	cleanup(ResetForTest)
}

// RecordedCall is a native method invocation captured by RecordingBridge.
type RecordedCall struct {
	Channel string
	Method  string
	Args    any // JSON-decoded
}

// RecordingBridge is a NativeBridge that captures every outbound method
// call. Set Err to make InvokeMethod fail.
type RecordingBridge struct {
	mu    sync.Mutex
	calls []RecordedCall
	Err   error
}

func (b *RecordingBridge) InvokeMethod(channel, method string, argsData []byte) ([]byte, error) {
	args, _ := DefaultCodec.Decode(argsData)
	b.mu.Lock()
	b.calls = append(b.calls, RecordedCall{Channel: channel, Method: method, Args: args})
	err := b.Err
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return DefaultCodec.Encode(nil)
}

func (b *RecordingBridge) StartEventStream(string) error { return nil }
func (b *RecordingBridge) StopEventStream(string) error  { return nil }

// Calls returns every captured call in order.
func (b *RecordingBridge) Calls() []RecordedCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedCall, len(b.calls))
	copy(out, b.calls)
	return out
}

// CallsOn returns the captured calls made on one channel.
func (b *RecordingBridge) CallsOn(channel string) []RecordedCall {
	var out []RecordedCall
	for _, c := range b.Calls() {
		if c.Channel == channel {
			out = append(out, c)
		}
	}
	return out
}

// Reset discards captured calls.
func (b *RecordingBridge) Reset() {
	b.mu.Lock()
	b.calls = nil
	b.mu.Unlock()
}

// SetupRecordingBridge is SetupTestBridge with a RecordingBridge installed.
func SetupRecordingBridge(cleanup func(func())) *RecordingBridge {
	SetupTestBridge(cleanup)
	b := &RecordingBridge{}
	SetNativeBridge(b)
	return b
}
