package mapkit

import (
	"sync"

	"github.com/go-drift/mapbridge/pkg/platform"
)

// EngineChannelName is the platform channel the native MapKit listens on.
const EngineChannelName = "mapbridge/mapkit"

// ChannelEngine is an Engine that forwards every call to the native side
// over a platform method channel.
type ChannelEngine struct {
	channel *platform.MethodChannel
}

// NewChannelEngine creates an Engine bound to EngineChannelName.
func NewChannelEngine() *ChannelEngine {
	return &ChannelEngine{channel: platform.NewMethodChannel(EngineChannelName)}
}

func (e *ChannelEngine) SetAPIKey(key string) error {
	_, err := e.channel.Invoke("setApiKey", map[string]any{"apiKey": key})
	return err
}

func (e *ChannelEngine) Initialize() error {
	_, err := e.channel.Invoke("initialize", nil)
	return err
}

func (e *ChannelEngine) Start() error {
	_, err := e.channel.Invoke("onStart", nil)
	return err
}

func (e *ChannelEngine) Stop() error {
	_, err := e.channel.Invoke("onStop", nil)
	return err
}

var (
	sharedOnce    sync.Once
	sharedRuntime *Runtime
)

// Shared returns the process-wide Runtime, creating it on first use with a
// ChannelEngine.
func Shared() *Runtime {
	sharedOnce.Do(func() {
		sharedRuntime = New(NewChannelEngine())
	})
	return sharedRuntime
}
