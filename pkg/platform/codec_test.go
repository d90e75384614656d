package platform

import (
	"errors"
	"testing"
)

func TestJSONCodec(t *testing.T) {
	v, err := DefaultCodec.Decode(nil)
	if err != nil || v != nil {
		t.Errorf("Decode(nil) = %v, %v; want nil, nil", v, err)
	}

	data, err := DefaultCodec.Encode(map[string]any{"viewId": 3})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	v, err = DefaultCodec.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m, ok := v.(map[string]any); !ok || m["viewId"] != float64(3) {
		t.Errorf("Decode = %#v, want viewId 3 as float64", v)
	}

	if _, err := DefaultCodec.Decode([]byte("{")); err == nil {
		t.Error("Decode accepted truncated JSON")
	}
}

func TestChannelErrorMessage(t *testing.T) {
	tests := []struct {
		err  *ChannelError
		want string
	}{
		{&ChannelError{Code: "not_started"}, "not_started"},
		{&ChannelError{Code: "not_started", Message: "MapKit is not started"}, "not_started: MapKit is not started"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}

	var err error = &ChannelError{Code: "E"}
	var target *ChannelError
	if !errors.As(err, &target) || target.Code != "E" {
		t.Error("errors.As failed for *ChannelError")
	}
}
