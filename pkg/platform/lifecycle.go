package platform

import (
	"sync"

	"github.com/go-drift/mapbridge/pkg/errors"
)

const (
	lifecycleChannelName = "mapbridge/lifecycle"
	lifecycleEventsName  = "mapbridge/lifecycle/events"
)

// Lifecycle tracks the host application's lifecycle state.
var Lifecycle = &LifecycleService{
	channel: NewMethodChannel(lifecycleChannelName),
	events:  NewEventChannel(lifecycleEventsName),
	state:   LifecycleStateResumed,
}

// LifecycleService manages app lifecycle events.
type LifecycleService struct {
	channel  *MethodChannel
	events   *EventChannel
	state    LifecycleState
	handlers []lifecycleEntry
	nextID   int
	mu       sync.RWMutex
}

type lifecycleEntry struct {
	id      int
	handler LifecycleHandler
}

// LifecycleState represents the current app lifecycle state.
type LifecycleState string

const (
	// LifecycleStateResumed indicates the app is in the foreground and visible.
	LifecycleStateResumed LifecycleState = "resumed"

	// LifecycleStateInactive indicates the app is transitioning (e.g., a
	// system dialog is shown) but still visible.
	LifecycleStateInactive LifecycleState = "inactive"

	// LifecycleStatePaused indicates the app is in the background.
	LifecycleStatePaused LifecycleState = "paused"

	// LifecycleStateDetached indicates the app is still hosted but detached from any view.
	LifecycleStateDetached LifecycleState = "detached"
)

// LifecycleHandler is called when lifecycle state changes.
type LifecycleHandler func(state LifecycleState)

func init() {
	states := NewStream(Lifecycle.events, decodeLifecycleEvent)
	registerBuiltinInit(func() {
		states.Listen(Lifecycle.updateState)
	})

	Lifecycle.channel.SetHandler(func(method string, args any) (any, error) {
		switch method {
		case "didChangeState":
			state, ok := parseLifecycleState(args)
			if !ok {
				return nil, ErrInvalidArguments
			}
			Lifecycle.updateState(state)
			return nil, nil
		default:
			return nil, ErrMethodNotFound
		}
	})
}

func decodeLifecycleEvent(data any) (LifecycleState, error) {
	state, ok := parseLifecycleState(data)
	if !ok {
		return "", &errors.ParseError{
			Channel:  lifecycleEventsName,
			DataType: "LifecycleState",
			Got:      data,
		}
	}
	return state, nil
}

func parseLifecycleState(data any) (LifecycleState, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return "", false
	}
	state, ok := m["state"].(string)
	if !ok {
		return "", false
	}
	switch s := LifecycleState(state); s {
	case LifecycleStateResumed, LifecycleStateInactive, LifecycleStatePaused, LifecycleStateDetached:
		return s, true
	}
	return "", false
}

// State returns the current lifecycle state.
func (l *LifecycleService) State() LifecycleState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// AddHandler registers a handler to be called on lifecycle changes.
// Returns a function that removes the handler.
func (l *LifecycleService) AddHandler(handler LifecycleHandler) func() {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.handlers = append(l.handlers, lifecycleEntry{id: id, handler: handler})
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, e := range l.handlers {
			if e.id == id {
				l.handlers = append(l.handlers[:i], l.handlers[i+1:]...)
				return
			}
		}
	}
}

// IsResumed returns true if the app is in the resumed state.
func (l *LifecycleService) IsResumed() bool {
	return l.State() == LifecycleStateResumed
}

// IsPaused returns true if the app is paused.
func (l *LifecycleService) IsPaused() bool {
	return l.State() == LifecycleStatePaused
}

// updateState updates the lifecycle state and notifies handlers.
func (l *LifecycleService) updateState(newState LifecycleState) {
	l.mu.Lock()
	if l.state == newState {
		l.mu.Unlock()
		return
	}
	l.state = newState
	handlers := make([]LifecycleHandler, len(l.handlers))
	for i, e := range l.handlers {
		handlers[i] = e.handler
	}
	l.mu.Unlock()

	for _, h := range handlers {
		h(newState)
	}
}
