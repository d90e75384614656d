package mapkit

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-drift/mapbridge/pkg/errors"
	"github.com/go-drift/mapbridge/pkg/log"
)

// Engine is the native map runtime controlled by a Runtime.
type Engine interface {
	// SetAPIKey installs the credential. Called once, before Initialize.
	SetAPIKey(key string) error
	// Initialize loads the native runtime.
	Initialize() error
	// Start resumes rendering and network activity.
	Start() error
	// Stop suspends rendering and network activity.
	Stop() error
}

// Runtime is the reference-counted handle to an Engine.
// All methods are safe for concurrent use.
type Runtime struct {
	engine Engine
	logger log.Logger

	mu          sync.Mutex
	initialized bool
	refCount    int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l log.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Runtime for engine.
func New(engine Engine, opts ...Option) *Runtime {
	r := &Runtime{engine: engine}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// Initialize installs credential and loads the engine. It succeeds at most
// once per Runtime; later calls return ErrAlreadyInitialized without
// touching the engine. A failed call leaves the Runtime uninitialized.
func (r *Runtime) Initialize(credential string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return ErrAlreadyInitialized
	}
	if err := ValidateCredential(credential); err != nil {
		r.report("mapkit.Initialize", errors.KindInit, err)
		return err
	}

	if err := r.callEngine("SetAPIKey", func() error { return r.engine.SetAPIKey(credential) }); err != nil {
		err = fmt.Errorf("%w: set api key: %w", ErrEngineInitFailed, err)
		r.report("mapkit.Initialize", errors.KindInit, err)
		return err
	}
	if err := r.callEngine("Initialize", r.engine.Initialize); err != nil {
		err = fmt.Errorf("%w: %w", ErrEngineInitFailed, err)
		r.report("mapkit.Initialize", errors.KindInit, err)
		return err
	}

	r.initialized = true
	r.logger.Info("mapkit initialized")
	return nil
}

// Activate registers one consumer. The engine is started only when the
// count goes from 0 to 1; if that start fails the count stays at 0.
func (r *Runtime) Activate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	if r.refCount == 0 {
		if err := r.callEngine("Start", r.engine.Start); err != nil {
			err = fmt.Errorf("%w: %w", ErrEngineStartFailed, err)
			r.report("mapkit.Activate", errors.KindActivation, err)
			return err
		}
		r.logger.Debug("mapkit engine started")
	}
	r.refCount++
	return nil
}

// Deactivate releases one consumer. The engine is stopped only when the
// count goes from 1 to 0. Deactivating with no outstanding activation
// returns ErrImbalancedActivation and leaves the count at zero.
func (r *Runtime) Deactivate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refCount == 0 {
		r.logger.Error("mapkit deactivated more times than activated",
			log.Int("ref_count", r.refCount))
		r.report("mapkit.Deactivate", errors.KindActivation, ErrImbalancedActivation)
		return ErrImbalancedActivation
	}
	r.refCount--
	if r.refCount > 0 {
		return nil
	}
	if err := r.callEngine("Stop", r.engine.Stop); err != nil {
		err = fmt.Errorf("%w: %w", ErrEngineStopFailed, err)
		r.report("mapkit.Deactivate", errors.KindActivation, err)
		return err
	}
	r.logger.Debug("mapkit engine stopped")
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (r *Runtime) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// RefCount returns the number of outstanding activations.
func (r *Runtime) RefCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refCount
}

// Active reports whether at least one activation is outstanding.
func (r *Runtime) Active() bool {
	return r.RefCount() > 0
}

// callEngine runs an engine call, converting a panic into an error so a
// misbehaving engine cannot take the host down.
func (r *Runtime) callEngine(name string, fn func() error) (err error) {
	defer errors.RecoverWithCallback("mapkit.engine."+name, func(v any) {
		err = fmt.Errorf("engine %s panicked: %v", name, v)
	})
	return fn()
}

func (r *Runtime) report(op string, kind errors.ErrorKind, err error) {
	errors.Report(&errors.BridgeError{Op: op, Kind: kind, Err: err})
}

// ValidateCredential checks the shape of an API key: non-empty, made of
// letters, digits, hyphens and underscores only.
func ValidateCredential(credential string) error {
	if strings.TrimSpace(credential) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCredential)
	}
	for _, c := range credential {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("%w: unexpected character %q", ErrInvalidCredential, c)
		}
	}
	return nil
}
