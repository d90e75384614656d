package sim

import (
	"errors"
	"fmt"

	"github.com/go-drift/mapbridge/pkg/mapview"
)

// ErrSurfaceReleased is returned by any call on a released surface.
var ErrSurfaceReleased = errors.New("surface used after release")

// Surface is a simulated native map surface. Calls are serialized by the
// owning view.
type Surface struct {
	native   *Native
	id       int64
	failMove bool
	released bool
}

func (s *Surface) Move(c mapview.CameraPosition) error {
	if s.released {
		return ErrSurfaceReleased
	}
	if s.failMove {
		return errors.New("simulated camera move failure")
	}
	s.native.journal.add(surfaceTarget(s.id), "move",
		fmt.Sprintf("%.6f,%.6f z%.0f", c.Target.Latitude, c.Target.Longitude, c.Zoom))
	return nil
}

func (s *Surface) Start() error {
	if s.released {
		return ErrSurfaceReleased
	}
	s.native.journal.add(surfaceTarget(s.id), "start", "")
	return nil
}

func (s *Surface) Stop() error {
	if s.released {
		return ErrSurfaceReleased
	}
	s.native.journal.add(surfaceTarget(s.id), "stop", "")
	return nil
}

func (s *Surface) Release() {
	s.released = true
	s.native.journal.add(surfaceTarget(s.id), "release", "")
}
