package mapkit

import "errors"

var (
	// ErrInvalidCredential is returned by Initialize for an empty or
	// malformed API key.
	ErrInvalidCredential = errors.New("mapkit: invalid credential")

	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("mapkit: already initialized")

	// ErrNotInitialized is returned by Activate before Initialize succeeded.
	ErrNotInitialized = errors.New("mapkit: not initialized")

	// ErrEngineInitFailed wraps an engine failure during Initialize.
	ErrEngineInitFailed = errors.New("mapkit: engine initialization failed")

	// ErrImbalancedActivation is returned by Deactivate when no activation
	// is outstanding. It indicates a lifecycle ordering bug in the caller.
	ErrImbalancedActivation = errors.New("mapkit: deactivate without matching activate")

	// ErrEngineStartFailed wraps an engine failure on the 0→1 transition.
	ErrEngineStartFailed = errors.New("mapkit: engine start failed")

	// ErrEngineStopFailed wraps an engine failure on the 1→0 transition.
	ErrEngineStopFailed = errors.New("mapkit: engine stop failed")
)
