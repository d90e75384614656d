package platform

import "github.com/go-drift/mapbridge/pkg/errors"

// Stream decodes the events of an EventChannel into typed values.
// Events that fail to decode are reported, not delivered.
type Stream[T any] struct {
	events *EventChannel
	parse  func(data any) (T, error)
}

// NewStream wraps channel with a decoder.
func NewStream[T any](channel *EventChannel, parse func(data any) (T, error)) *Stream[T] {
	return &Stream[T]{events: channel, parse: parse}
}

// Listen delivers every decoded event to handler until the returned
// function is called.
func (s *Stream[T]) Listen(handler func(T)) (unsubscribe func()) {
	name := s.events.Name()
	sub := s.events.Listen(EventHandler{
		OnEvent: func(data any) {
			val, err := s.parse(data)
			if err != nil {
				errors.Report(&errors.BridgeError{
					Op:      "stream.parse",
					Kind:    errors.KindParsing,
					Channel: name,
					Err:     err,
				})
				return
			}
			handler(val)
		},
		OnError: func(err error) {
			errors.Report(&errors.BridgeError{
				Op:      "stream.error",
				Kind:    errors.KindPlatform,
				Channel: name,
				Err:     err,
			})
		},
	})
	return sub.Cancel
}
