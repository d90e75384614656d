// Package lifecycle keeps the shared map runtime and the embedded map views
// in step with the host application.
//
// Two event streams arrive from the host: application foreground/background
// and per-view attach/detach/resume/pause. The Synchronizer turns both into
// correctly ordered runtime activations and view start/stop calls: the
// runtime is always activated before a view starts, and deactivated only
// after the views relying on it have stopped.
package lifecycle

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/multierr"

	"github.com/go-drift/mapbridge/pkg/log"
	"github.com/go-drift/mapbridge/pkg/mapview"
)

// Runtime is the part of *mapkit.Runtime the Synchronizer drives.
type Runtime interface {
	Activate() error
	Deactivate() error
}

// attachment tracks one attached view. holding is true while the view
// owns a runtime activation and its surface is started; it is false while
// the view is suspended by a background transition.
type attachment struct {
	view    *mapview.View
	holding bool
}

// Synchronizer serializes host lifecycle signals. All methods are safe
// for concurrent use.
type Synchronizer struct {
	runtime Runtime
	factory *mapview.Factory
	logger  log.Logger

	mu         sync.Mutex
	foreground bool
	attached   map[*mapview.View]*attachment
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l log.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Synchronizer for runtime and the views built by factory.
func New(runtime Runtime, factory *mapview.Factory, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		runtime:  runtime,
		factory:  factory,
		attached: make(map[*mapview.View]*attachment),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// CreateView builds the view for id. Construction failures are reported
// to the host by the view itself; the only error is a duplicate id.
func (s *Synchronizer) CreateView(id int64, ctx mapview.SurfaceContext, args map[string]any) (*mapview.View, error) {
	v, err := s.factory.Build(id, ctx, args)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("map view created", log.Int64("view_id", id), log.String("state", v.State().String()))
	return v, nil
}

// View returns the live view for id.
func (s *Synchronizer) View(id int64) (*mapview.View, bool) {
	return s.factory.Lookup(id)
}

// ViewType returns the host view type the factory is registered under.
func (s *Synchronizer) ViewType() string {
	return s.factory.ViewType()
}

// DisposeView disposes v, releasing its runtime activation if it was
// attached. Disposing an already disposed view is a no-op.
func (s *Synchronizer) DisposeView(v *mapview.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposeLocked(v)
}

func (s *Synchronizer) disposeLocked(v *mapview.View) error {
	a := s.attached[v]
	delete(s.attached, v)

	v.Dispose()
	if a != nil && a.holding {
		if err := s.runtime.Deactivate(); err != nil {
			return fmt.Errorf("dispose view %d: %w", v.ID(), err)
		}
	}
	return nil
}

// DisposeAll disposes every live view built by the factory.
func (s *Synchronizer) DisposeAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := s.factory.Views()
	sortViews(views)
	var errs error
	for _, v := range views {
		errs = multierr.Append(errs, s.disposeLocked(v))
	}
	return errs
}

// OnApplicationForeground activates the runtime for the application and
// then restarts every attached view. If the runtime cannot be activated no
// view is started. Repeated calls while in the foreground are no-ops.
func (s *Synchronizer) OnApplicationForeground() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.foreground {
		return nil
	}
	if err := s.runtime.Activate(); err != nil {
		return fmt.Errorf("application foreground: %w", err)
	}
	s.foreground = true
	s.logger.Info("application entered foreground", log.Int("attached", len(s.attached)))

	var errs error
	for _, a := range s.sortedAttachments() {
		if a.holding {
			continue
		}
		if err := s.acquire(a.view); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		a.holding = true
	}
	return errs
}

// OnApplicationBackground stops every attached view, then releases their
// activations and, if the application was in the foreground, the
// application's own. A view whose surface fails to stop keeps its
// activation until it is detached or disposed.
func (s *Synchronizer) OnApplicationBackground() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasForeground := s.foreground
	s.foreground = false

	var errs error
	stopped := make([]*attachment, 0, len(s.attached))
	for _, a := range s.sortedAttachments() {
		if !a.holding {
			continue
		}
		if err := a.view.Stop(); err != nil {
			errs = multierr.Append(errs, s.wrap("stop", a.view, err))
			continue
		}
		stopped = append(stopped, a)
	}
	for _, a := range stopped {
		a.holding = false
		errs = multierr.Append(errs, s.wrap("deactivate for", a.view, s.runtime.Deactivate()))
	}
	if wasForeground {
		if err := s.runtime.Deactivate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("application background: %w", err))
		}
	}
	if wasForeground || len(stopped) > 0 {
		s.logger.Info("application entered background",
			log.Int("attached", len(s.attached)), log.Int("suspended", len(stopped)))
	}
	return errs
}

// OnViewAttach activates the runtime and then starts v. If activation
// fails v is not started; if starting fails the activation is released.
// Attaching an attached view is a no-op.
func (s *Synchronizer) OnViewAttach(v *mapview.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.State() == mapview.StateDisposed {
		return mapview.ErrInstanceDisposed
	}
	if _, ok := s.attached[v]; ok {
		return nil
	}
	if err := s.acquire(v); err != nil {
		return err
	}
	s.attached[v] = &attachment{view: v, holding: true}
	s.logger.Debug("map view attached", log.Int64("view_id", v.ID()))
	return nil
}

// acquire activates the runtime for v and starts it, undoing the
// activation when the start fails.
func (s *Synchronizer) acquire(v *mapview.View) error {
	if err := s.runtime.Activate(); err != nil {
		return s.wrap("activate for", v, err)
	}
	if err := v.Start(); err != nil {
		errs := s.wrap("start", v, err)
		if derr := s.runtime.Deactivate(); derr != nil {
			errs = multierr.Append(errs, s.wrap("roll back activation for", v, derr))
		}
		return errs
	}
	return nil
}

// OnViewDetach stops v and then releases its runtime activation.
// Detaching a view that is not attached is a no-op.
func (s *Synchronizer) OnViewDetach(v *mapview.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.State() == mapview.StateDisposed {
		return mapview.ErrInstanceDisposed
	}
	a, ok := s.attached[v]
	if !ok {
		return nil
	}
	delete(s.attached, v)

	errs := s.wrap("stop", v, v.Stop())
	if a.holding {
		errs = multierr.Append(errs, s.wrap("deactivate for", v, s.runtime.Deactivate()))
	}
	s.logger.Debug("map view detached", log.Int64("view_id", v.ID()))
	return errs
}

// OnViewResume restarts v's surface. The runtime is not touched.
func (s *Synchronizer) OnViewResume(v *mapview.View) error {
	return v.Resume()
}

// OnViewPause stops v's surface. The runtime is not touched.
func (s *Synchronizer) OnViewPause(v *mapview.View) error {
	return v.Pause()
}

// Foreground reports whether the application is in the foreground.
func (s *Synchronizer) Foreground() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.foreground
}

// Attached returns the number of attached views.
func (s *Synchronizer) Attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}

// IsAttached reports whether v is attached.
func (s *Synchronizer) IsAttached(v *mapview.View) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.attached[v]
	return ok
}

func (s *Synchronizer) sortedAttachments() []*attachment {
	out := make([]*attachment, 0, len(s.attached))
	for _, a := range s.attached {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *attachment) int {
		return compareIDs(a.view, b.view)
	})
	return out
}

func (s *Synchronizer) wrap(what string, v *mapview.View, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s view %d: %w", what, v.ID(), err)
}

func sortViews(views []*mapview.View) {
	slices.SortFunc(views, compareIDs)
}

func compareIDs(a, b *mapview.View) int {
	switch {
	case a.ID() < b.ID():
		return -1
	case a.ID() > b.ID():
		return 1
	}
	return 0
}
