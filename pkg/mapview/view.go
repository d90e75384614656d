package mapview

import (
	"fmt"
	"sync"

	"github.com/go-drift/mapbridge/pkg/errors"
	"github.com/go-drift/mapbridge/pkg/log"
)

// State is the construction state of a View.
type State int

const (
	StateCreated State = iota
	StateReady
	StateFailed
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Surface is the native map rendering surface owned by a View.
type Surface interface {
	// Move positions the camera.
	Move(CameraPosition) error
	// Start resumes rendering.
	Start() error
	// Stop suspends rendering.
	Stop() error
	// Release frees the native surface. It is called once, on dispose.
	Release()
}

// SurfaceContext is the opaque host context a surface is created in.
type SurfaceContext any

// SurfaceAllocator creates the rendering surface for a view.
type SurfaceAllocator func(ctx SurfaceContext, viewID int64) (Surface, error)

// View is one embedded map bound to a host-assigned id.
//
// Construction ends in StateReady or StateFailed and reports the outcome on
// the view's Notifier exactly once. Start, Stop, Resume and Pause are safe
// on either state. Dispose is a barrier: calls racing with it either finish
// before the surface is released or fail with ErrInstanceDisposed.
type View struct {
	id     int64
	logger log.Logger

	mu       sync.Mutex
	state    State
	surface  Surface
	notifier Notifier
	camera   CameraPosition
	started  bool
	err      error
	release  func()
}

// Create builds a standalone view. Most callers should use a Factory,
// which also guards against duplicate ids.
func Create(id int64, ctx SurfaceContext, args map[string]any, allocate SurfaceAllocator, notifier Notifier, opts ...Option) *View {
	o := buildOptions(opts)
	v := newView(id, notifier, o)
	v.construct(ctx, args, o.camera, allocate)
	return v
}

func newView(id int64, notifier Notifier, o options) *View {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &View{
		id:       id,
		logger:   o.logger,
		state:    StateCreated,
		notifier: notifier,
	}
}

// construct allocates the surface and applies the initial camera. It never
// panics and never returns an error: failures move the view to StateFailed
// and are reported to the host through the notifier.
func (v *View) construct(ctx SurfaceContext, args map[string]any, base CameraPosition, allocate SurfaceAllocator) {
	v.mu.Lock()
	defer v.mu.Unlock()

	camera, err := cameraFromArgs(base, args)
	if err == nil {
		err = camera.Validate()
	}
	if err != nil {
		v.camera = base
		v.fail(fmt.Errorf("%w: %w", ErrInitialConfigFailed, err))
		return
	}
	v.camera = camera

	surface, err := v.allocate(ctx, allocate)
	if err != nil {
		v.fail(fmt.Errorf("%w: %w", ErrSurfaceAllocationFailed, err))
		return
	}
	v.surface = surface

	if err := v.guard("Move", func() error { return surface.Move(camera) }); err != nil {
		v.fail(fmt.Errorf("%w: %w", ErrInitialConfigFailed, err))
		return
	}

	v.state = StateReady
	v.logger.Debug("map view ready", log.Int64("view_id", v.id))
	if err := v.notifier.Ready(); err != nil {
		v.reportNotify(MethodMapReady, err)
	}
}

func (v *View) allocate(ctx SurfaceContext, allocate SurfaceAllocator) (Surface, error) {
	if allocate == nil {
		return nil, fmt.Errorf("no surface allocator")
	}
	var surface Surface
	err := v.guard("Allocate", func() error {
		s, err := allocate(ctx, v.id)
		surface = s
		return err
	})
	if err != nil {
		return nil, err
	}
	if surface == nil {
		return nil, fmt.Errorf("allocator returned no surface")
	}
	return surface, nil
}

// fail must be called with v.mu held.
func (v *View) fail(err error) {
	v.state = StateFailed
	v.err = err
	v.logger.Error("map view construction failed", log.Int64("view_id", v.id), log.Err(err))
	errors.Report(&errors.BridgeError{
		Op:     "mapview.Create",
		Kind:   errors.KindConstruction,
		ViewID: v.id,
		Err:    err,
	})
	if nerr := v.notifier.Error(err.Error()); nerr != nil {
		v.reportNotify(MethodMapError, nerr)
	}
}

func (v *View) reportNotify(method string, err error) {
	v.logger.Warn("map view notification not delivered",
		log.Int64("view_id", v.id), log.String("method", method), log.Err(err))
	errors.Report(&errors.BridgeError{
		Op:      "mapview.notify",
		Kind:    errors.KindPlatform,
		ViewID:  v.id,
		Channel: ChannelName(v.id),
		Err:     err,
	})
}

// guard runs a surface call, turning a panic into an error.
func (v *View) guard(name string, fn func() error) (err error) {
	defer errors.RecoverWithCallback("mapview.surface."+name, func(r any) {
		err = fmt.Errorf("surface %s panicked: %v", name, r)
	})
	return fn()
}

// surfaceCall runs a surface call on a live view and reports a failure.
// Must be called with v.mu held.
func (v *View) surfaceCall(op string, fn func() error) error {
	if err := v.guard(op, fn); err != nil {
		bErr := &errors.BridgeError{
			Op:     "mapview." + op,
			Kind:   errors.KindSurface,
			ViewID: v.id,
			Err:    err,
		}
		v.logger.Error("map surface call failed",
			log.Int64("view_id", v.id), log.String("op", op), log.Err(err))
		errors.Report(bErr)
		return bErr
	}
	return nil
}

// ID returns the host-assigned view id.
func (v *View) ID() int64 {
	return v.id
}

// State returns the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Started reports whether the surface is currently started.
func (v *View) Started() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.started
}

// Camera returns the initial camera position applied to the view.
func (v *View) Camera() CameraPosition {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.camera
}

// Err returns the construction failure, or nil.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Start starts the rendering surface. It is a no-op when the surface is
// already started or was never allocated.
func (v *View) Start() error {
	return v.start("Start")
}

// Resume is Start, driven by the host's view resume signal.
func (v *View) Resume() error {
	return v.start("Resume")
}

// Stop stops the rendering surface. It is a no-op when the surface is not
// started.
func (v *View) Stop() error {
	return v.stop("Stop")
}

// Pause is Stop, driven by the host's view pause signal.
func (v *View) Pause() error {
	return v.stop("Pause")
}

func (v *View) start(op string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == StateDisposed {
		return ErrInstanceDisposed
	}
	if v.surface == nil || v.started {
		return nil
	}
	if err := v.surfaceCall(op, v.surface.Start); err != nil {
		return err
	}
	v.started = true
	return nil
}

func (v *View) stop(op string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state == StateDisposed {
		return ErrInstanceDisposed
	}
	if v.surface == nil || !v.started {
		return nil
	}
	if err := v.surfaceCall(op, v.surface.Stop); err != nil {
		return err
	}
	v.started = false
	return nil
}

// Dispose stops the surface, releases it and the notifier, and moves the
// view to StateDisposed. It always succeeds; a failing stop is logged and
// swallowed. Dispose is idempotent.
func (v *View) Dispose() {
	v.mu.Lock()
	if v.state == StateDisposed {
		v.mu.Unlock()
		return
	}

	if v.surface != nil {
		surface := v.surface
		if err := v.guard("Stop", surface.Stop); err != nil {
			v.logger.Warn("map surface stop failed during dispose",
				log.Int64("view_id", v.id), log.Err(err))
		}
		_ = v.guard("Release", func() error {
			surface.Release()
			return nil
		})
	}
	v.notifier.Close()

	v.surface = nil
	v.started = false
	v.state = StateDisposed
	release := v.release
	v.release = nil
	v.mu.Unlock()

	if release != nil {
		release()
	}
	v.logger.Debug("map view disposed", log.Int64("view_id", v.id))
}
