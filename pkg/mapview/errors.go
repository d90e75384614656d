package mapview

import "errors"

var (
	// ErrSurfaceAllocationFailed means the native rendering surface could
	// not be created. The view ends up Failed.
	ErrSurfaceAllocationFailed = errors.New("mapview: surface allocation failed")

	// ErrInitialConfigFailed means the initial camera could not be applied.
	// The view ends up Failed.
	ErrInitialConfigFailed = errors.New("mapview: initial configuration failed")

	// ErrInstanceDisposed is returned by any call on a disposed view.
	ErrInstanceDisposed = errors.New("mapview: instance disposed")

	// ErrDuplicateViewID is returned by Factory.Build for an id that is
	// still in use by a live view.
	ErrDuplicateViewID = errors.New("mapview: duplicate view id")
)
