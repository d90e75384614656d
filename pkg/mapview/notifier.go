package mapview

import (
	"fmt"

	"github.com/go-drift/mapbridge/pkg/platform"
)

// ControllerChannelPrefix is the fixed part of every view's outbound
// channel name. The full name is ControllerChannelPrefix + "_" + view id.
const ControllerChannelPrefix = "yandex_mapkit/map_controller"

// Methods sent on the outbound channel.
const (
	MethodMapReady = "onMapReady"
	MethodMapError = "onMapError"
)

// Notifier is a view's one-way channel to the host.
type Notifier interface {
	// Ready tells the host the view is usable.
	Ready() error
	// Error tells the host the view failed to construct.
	Error(message string) error
	// Close releases the channel. Further sends fail.
	Close()
}

// NotifierFunc creates the Notifier for a view id.
type NotifierFunc func(viewID int64) Notifier

// ChannelName returns the outbound channel name for a view.
func ChannelName(viewID int64) string {
	return fmt.Sprintf("%s_%d", ControllerChannelPrefix, viewID)
}

// ChannelNotifier sends notifications over a platform method channel
// scoped to one view.
type ChannelNotifier struct {
	channel *platform.MethodChannel
}

// NewChannelNotifier creates the notifier for viewID.
func NewChannelNotifier(viewID int64) Notifier {
	return &ChannelNotifier{channel: platform.NewMethodChannel(ChannelName(viewID))}
}

func (n *ChannelNotifier) Ready() error {
	_, err := n.channel.Invoke(MethodMapReady, nil)
	return err
}

func (n *ChannelNotifier) Error(message string) error {
	_, err := n.channel.Invoke(MethodMapError, message)
	return err
}

func (n *ChannelNotifier) Close() {
	n.channel.Close()
}

// Name returns the channel name.
func (n *ChannelNotifier) Name() string {
	return n.channel.Name()
}

type nopNotifier struct{}

func (nopNotifier) Ready() error       { return nil }
func (nopNotifier) Error(string) error { return nil }
func (nopNotifier) Close()             {}
