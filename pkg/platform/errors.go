package platform

import "errors"

var (
	// ErrClosed is returned when operating on a closed channel or stream.
	ErrClosed = errors.New("platform: channel closed")

	// ErrChannelNotFound is returned for a call on a channel nobody registered.
	ErrChannelNotFound = errors.New("platform: channel not found")

	// ErrMethodNotFound is returned by a handler that does not know the method.
	ErrMethodNotFound = errors.New("platform: method not implemented")

	// ErrInvalidArguments is returned when call arguments fail to decode.
	ErrInvalidArguments = errors.New("platform: invalid arguments")

	// ErrPlatformUnavailable is returned when no native bridge is installed.
	ErrPlatformUnavailable = errors.New("platform: no native bridge")

	// ErrViewTypeNotFound is returned when creating a view of an unknown type.
	ErrViewTypeNotFound = errors.New("platform: view type not registered")
)

// ChannelError is an error reported by native code, identified by Code.
type ChannelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ChannelError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}
