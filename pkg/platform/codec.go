// Package platform provides channel communication between Go and the native
// host. Go calls into native code through [MethodChannel]s and receives
// streamed events (such as application lifecycle changes) through
// [EventChannel]s. All traffic crosses a single [NativeBridge] installed by
// the host at startup.
package platform

import "encoding/json"

// MessageCodec turns channel payloads into bytes and back. Both sides of
// the bridge must agree on it.
type MessageCodec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// JSONCodec carries payloads as JSON. Objects decode to map[string]any and
// numbers to float64.
type JSONCodec struct{}

func (JSONCodec) Encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

// Decode treats an empty payload as nil.
func (JSONCodec) Decode(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DefaultCodec encodes every method call, reply and event.
var DefaultCodec MessageCodec = JSONCodec{}
