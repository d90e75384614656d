// Package bridge binds the lifecycle synchronizer to the native host.
//
// The host drives embedded map views over the "mapbridge/platform_views"
// method channel and reports application state through platform.Lifecycle.
// Host translates both into Synchronizer calls.
package bridge

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	bridgeerrors "github.com/go-drift/mapbridge/pkg/errors"
	"github.com/go-drift/mapbridge/pkg/lifecycle"
	"github.com/go-drift/mapbridge/pkg/log"
	"github.com/go-drift/mapbridge/pkg/mapview"
	"github.com/go-drift/mapbridge/pkg/platform"
)

// ChannelName is the method channel the host uses to manage map views.
const ChannelName = "mapbridge/platform_views"

// ErrViewNotFound is returned for a view id with no live view.
var ErrViewNotFound = errors.New("map view not found")

// Host routes native platform view calls and application lifecycle
// changes to a Synchronizer.
type Host struct {
	sync    *lifecycle.Synchronizer
	logger  log.Logger
	ctx     mapview.SurfaceContext
	channel *platform.MethodChannel

	mu              sync.Mutex
	removeLifecycle func()
	closed          bool
	disposed        map[int64]struct{}
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l log.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSurfaceContext sets the context passed to the surface allocator for
// every view the host creates.
func WithSurfaceContext(ctx mapview.SurfaceContext) Option {
	return func(h *Host) { h.ctx = ctx }
}

// New binds s to the platform view channel and the application lifecycle.
// The current lifecycle state is applied immediately, so the runtime should
// be initialized first.
func New(s *lifecycle.Synchronizer, opts ...Option) *Host {
	h := &Host{sync: s, disposed: make(map[int64]struct{})}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = log.Default()
	}

	h.channel = platform.NewMethodChannel(ChannelName)
	h.channel.SetHandler(h.handleMethodCall)
	h.removeLifecycle = platform.Lifecycle.AddHandler(func(state platform.LifecycleState) {
		platform.DispatchOrRun(func() { h.applyState(state) })
	})
	h.applyState(platform.Lifecycle.State())
	return h
}

// Close detaches the host from the platform and disposes every live view.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	remove := h.removeLifecycle
	h.removeLifecycle = nil
	h.mu.Unlock()

	if remove != nil {
		remove()
	}
	h.channel.Close()

	err := multierr.Combine(
		h.sync.DisposeAll(),
		h.sync.OnApplicationBackground(),
	)
	h.logger.Info("map host closed")
	return err
}

func (h *Host) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Sync re-applies the current application lifecycle state. A host that
// creates the Host before initializing the runtime calls Sync after
// Initialize, since the foreground transition New attempted has failed.
func (h *Host) Sync() error {
	return h.transition(platform.Lifecycle.State())
}

// applyState maps an application lifecycle state onto the synchronizer
// and reports a failed transition.
func (h *Host) applyState(state platform.LifecycleState) {
	if err := h.transition(state); err != nil {
		h.logger.Error("application lifecycle transition failed",
			log.String("state", string(state)), log.Err(err))
		bridgeerrors.Report(&bridgeerrors.BridgeError{
			Op:      "bridge.lifecycle",
			Kind:    bridgeerrors.KindActivation,
			Channel: ChannelName,
			Err:     err,
		})
	}
}

// transition moves the synchronizer to state. Inactive is a transient
// state and is ignored.
func (h *Host) transition(state platform.LifecycleState) error {
	if h.isClosed() {
		return nil
	}
	switch state {
	case platform.LifecycleStateResumed:
		return h.sync.OnApplicationForeground()
	case platform.LifecycleStatePaused, platform.LifecycleStateDetached:
		return h.sync.OnApplicationBackground()
	}
	return nil
}

func (h *Host) handleMethodCall(method string, args any) (any, error) {
	if method == "create" {
		return h.create(args)
	}

	var op func(*mapview.View) error
	switch method {
	case "dispose":
		op = h.sync.DisposeView
	case "attach":
		op = h.sync.OnViewAttach
	case "detach":
		op = h.sync.OnViewDetach
	case "resume":
		op = h.sync.OnViewResume
	case "pause":
		op = h.sync.OnViewPause
	default:
		return nil, platform.ErrMethodNotFound
	}

	m, ok := platform.ArgsMap(args)
	if !ok {
		return nil, platform.ErrInvalidArguments
	}
	id, err := viewID(m)
	if err != nil {
		return nil, err
	}
	v, ok := h.sync.View(id)
	if !ok {
		if h.Disposed(id) {
			return nil, fmt.Errorf("%s view %d: %w", method, id, mapview.ErrInstanceDisposed)
		}
		return nil, fmt.Errorf("%s view %d: %w", method, id, ErrViewNotFound)
	}
	err = op(v)
	if method == "dispose" {
		h.markDisposed(id, true)
	}
	if err != nil {
		h.logger.Warn("platform view call failed",
			log.String("method", method), log.Int64("view_id", id), log.Err(err))
		return nil, err
	}
	return nil, nil
}

// create builds a view. A view that fails to construct is still created:
// the failure reaches the host as an onMapError notification, not as a
// call error.
func (h *Host) create(args any) (any, error) {
	m, ok := platform.ArgsMap(args)
	if !ok {
		return nil, platform.ErrInvalidArguments
	}
	id, err := viewID(m)
	if err != nil {
		return nil, err
	}
	viewType, _ := platform.StringArg(m, "viewType")
	if viewType != h.sync.ViewType() {
		return nil, fmt.Errorf("%q: %w", viewType, platform.ErrViewTypeNotFound)
	}
	params, ok := platform.ArgsMap(m["params"])
	if !ok {
		return nil, fmt.Errorf("%w: params must be an object", platform.ErrInvalidArguments)
	}

	v, err := h.sync.CreateView(id, h.ctx, params)
	if err != nil {
		return nil, err
	}
	h.markDisposed(id, false)
	return map[string]any{
		"viewId": id,
		"state":  v.State().String(),
	}, nil
}

// Disposed reports whether id belonged to a view that was disposed and
// has not been created again.
func (h *Host) Disposed(id int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.disposed[id]
	return ok
}

func (h *Host) markDisposed(id int64, disposed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if disposed {
		h.disposed[id] = struct{}{}
	} else {
		delete(h.disposed, id)
	}
}

func viewID(args map[string]any) (int64, error) {
	id, err := platform.Int64Arg(args, "viewId")
	if err != nil {
		return 0, err
	}
	if id < 0 {
		return 0, fmt.Errorf("%w: negative viewId %d", platform.ErrInvalidArguments, id)
	}
	return id, nil
}
