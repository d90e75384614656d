package platform

import (
	"fmt"
	"sync"

	"github.com/go-drift/mapbridge/pkg/errors"
)

// channelRegistry manages all registered platform channels.
type channelRegistry struct {
	methodChannels map[string]*MethodChannel
	eventChannels  map[string]*EventChannel
	mu             sync.RWMutex
}

var registry = &channelRegistry{
	methodChannels: make(map[string]*MethodChannel),
	eventChannels:  make(map[string]*EventChannel),
}

func (r *channelRegistry) registerMethod(name string, ch *MethodChannel) {
	r.mu.Lock()
	r.methodChannels[name] = ch
	r.mu.Unlock()
}

// unregisterMethod removes ch only if it is still the channel registered
// under name.
func (r *channelRegistry) unregisterMethod(name string, ch *MethodChannel) {
	r.mu.Lock()
	if r.methodChannels[name] == ch {
		delete(r.methodChannels, name)
	}
	r.mu.Unlock()
}

func (r *channelRegistry) registerEvent(name string, ch *EventChannel) {
	r.mu.Lock()
	r.eventChannels[name] = ch
	r.mu.Unlock()
}

func (r *channelRegistry) getMethodChannel(name string) *MethodChannel {
	r.mu.RLock()
	ch := r.methodChannels[name]
	r.mu.RUnlock()
	return ch
}

func (r *channelRegistry) getEventChannel(name string) *EventChannel {
	r.mu.RLock()
	ch := r.eventChannels[name]
	r.mu.RUnlock()
	return ch
}

func (r *channelRegistry) eventChannelList() []*EventChannel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	channels := make([]*EventChannel, 0, len(r.eventChannels))
	for _, ch := range r.eventChannels {
		channels = append(channels, ch)
	}
	return channels
}

// HasMethodChannel reports whether a method channel is registered under name.
func HasMethodChannel(name string) bool {
	return registry.getMethodChannel(name) != nil
}

// NativeBridge defines the interface for calling native platform code.
type NativeBridge interface {
	// InvokeMethod calls a method on the native side.
	InvokeMethod(channel, method string, args []byte) ([]byte, error)

	// StartEventStream tells native to start sending events for a channel.
	StartEventStream(channel string) error

	// StopEventStream tells native to stop sending events for a channel.
	StopEventStream(channel string) error
}

var (
	bridgeMu     sync.RWMutex
	nativeBridge NativeBridge
)

func currentBridge() NativeBridge {
	bridgeMu.RLock()
	defer bridgeMu.RUnlock()
	return nativeBridge
}

// builtinInits holds functions that set up the package's own event
// listeners (lifecycle). ResetForTest replays them after clearing
// subscriptions.
var builtinInits []func()

func registerBuiltinInit(fn func()) {
	builtinInits = append(builtinInits, fn)
	fn()
}

// SetNativeBridge sets the native bridge implementation.
// Called by the host during initialization.
//
// After setting the bridge, SetNativeBridge starts event streams for any
// event channels that acquired subscriptions before the bridge was
// available (e.g., during package init). Startup errors are dispatched to
// subscribers' error handlers.
func SetNativeBridge(bridge NativeBridge) {
	bridgeMu.Lock()
	nativeBridge = bridge
	bridgeMu.Unlock()

	if bridge == nil {
		return
	}

	for _, ch := range registry.eventChannelList() {
		ch.mu.Lock()
		shouldStart := len(ch.subscriptions) > 0 && !ch.started
		if shouldStart {
			ch.started = true
		}
		ch.mu.Unlock()

		if shouldStart {
			if err := startEventStream(ch.name); err != nil {
				ch.mu.Lock()
				ch.started = false
				ch.mu.Unlock()
				ch.dispatchError(err)
			}
		}
	}
}

// invokeNative calls a method on the native side.
func invokeNative(channel, method string, args any) (any, error) {
	bridge := currentBridge()
	if bridge == nil {
		return nil, ErrPlatformUnavailable
	}

	argsData, err := DefaultCodec.Encode(args)
	if err != nil {
		return nil, err
	}

	resultData, err := bridge.InvokeMethod(channel, method, argsData)
	if err != nil {
		return nil, err
	}

	return DefaultCodec.Decode(resultData)
}

// startEventStream notifies native to start sending events.
func startEventStream(channel string) error {
	return eventStreamCall("platform.startEventStream", channel, func(b NativeBridge) error {
		return b.StartEventStream(channel)
	})
}

// stopEventStream notifies native to stop sending events.
func stopEventStream(channel string) error {
	return eventStreamCall("platform.stopEventStream", channel, func(b NativeBridge) error {
		return b.StopEventStream(channel)
	})
}

func eventStreamCall(op, channel string, call func(NativeBridge) error) error {
	bridge := currentBridge()
	err := ErrPlatformUnavailable
	if bridge != nil {
		err = call(bridge)
	}
	if err != nil {
		errors.Report(&errors.BridgeError{
			Op:      op,
			Kind:    errors.KindPlatform,
			Channel: channel,
			Err:     err,
		})
	}
	return err
}

// HandleMethodCall is called by the host when native invokes a Go method.
func HandleMethodCall(channel, method string, argsData []byte) ([]byte, error) {
	ch := registry.getMethodChannel(channel)
	if ch == nil {
		return nil, ErrChannelNotFound
	}

	args, err := DefaultCodec.Decode(argsData)
	if err != nil {
		return nil, err
	}

	result, err := ch.handleCall(method, args)
	if err != nil {
		return nil, err
	}

	return DefaultCodec.Encode(result)
}

// ErrChannelNotRegistered is returned when an event is received for an unregistered channel.
var ErrChannelNotRegistered = fmt.Errorf("event channel not registered")

func lookupEventChannel(op, channel string) (*EventChannel, error) {
	ch := registry.getEventChannel(channel)
	if ch == nil {
		err := fmt.Errorf("%w: %s", ErrChannelNotRegistered, channel)
		errors.Report(&errors.BridgeError{
			Op:      op,
			Kind:    errors.KindPlatform,
			Channel: channel,
			Err:     err,
		})
		return nil, err
	}
	return ch, nil
}

// HandleEvent is called by the host when native sends an event.
func HandleEvent(channel string, eventData []byte) error {
	ch, err := lookupEventChannel("platform.HandleEvent", channel)
	if err != nil {
		return err
	}

	data, err := DefaultCodec.Decode(eventData)
	if err != nil {
		ch.dispatchError(err)
		return err
	}

	ch.dispatchEvent(data)
	return nil
}

// HandleEventError is called by the host when an event stream errors.
func HandleEventError(channel string, code, message string) error {
	ch, err := lookupEventChannel("platform.HandleEventError", channel)
	if err != nil {
		return err
	}
	ch.dispatchError(&ChannelError{Code: code, Message: message})
	return nil
}

// HandleEventDone is called by the host when an event stream ends.
func HandleEventDone(channel string) error {
	ch, err := lookupEventChannel("platform.HandleEventDone", channel)
	if err != nil {
		return err
	}
	ch.dispatchDone()
	return nil
}

// ResetForTest resets all global platform state for test isolation.
// It clears the native bridge and dispatch function, resets the lifecycle
// state, removes all event subscriptions and re-registers the built-in
// listeners so the package behaves as if freshly initialized.
// This should only be called from tests.
func ResetForTest() {
	bridgeMu.Lock()
	nativeBridge = nil
	bridgeMu.Unlock()

	Lifecycle.mu.Lock()
	Lifecycle.state = LifecycleStateResumed
	Lifecycle.handlers = nil
	Lifecycle.mu.Unlock()

	for _, ch := range registry.eventChannelList() {
		ch.mu.Lock()
		ch.subscriptions = nil
		ch.started = false
		ch.mu.Unlock()
	}

	dispatchMu.Lock()
	dispatchFunc = nil
	dispatchMu.Unlock()

	for _, fn := range builtinInits {
		fn()
	}
}
