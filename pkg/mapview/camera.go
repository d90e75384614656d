package mapview

import (
	"fmt"
	"math"

	"github.com/go-drift/mapbridge/pkg/platform"
)

// Point is a geographic coordinate in degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// CameraPosition describes what the map shows.
type CameraPosition struct {
	Target Point
	// Zoom is the map zoom level.
	Zoom float32
	// Azimuth is the camera heading in degrees clockwise from north.
	Azimuth float32
	// Tilt is the camera tilt in degrees from the nadir.
	Tilt float32
}

// DefaultCameraPosition centers new views on Moscow.
var DefaultCameraPosition = CameraPosition{
	Target: Point{Latitude: 55.751244, Longitude: 37.618423},
	Zoom:   14,
}

const (
	minZoom = 0
	maxZoom = 21
	maxTilt = 90
)

// Validate reports whether the position can be applied to a surface.
func (c CameraPosition) Validate() error {
	switch {
	case math.IsNaN(c.Target.Latitude) || c.Target.Latitude < -90 || c.Target.Latitude > 90:
		return fmt.Errorf("latitude %v out of range", c.Target.Latitude)
	case math.IsNaN(c.Target.Longitude) || c.Target.Longitude < -180 || c.Target.Longitude > 180:
		return fmt.Errorf("longitude %v out of range", c.Target.Longitude)
	case c.Zoom < minZoom || c.Zoom > maxZoom:
		return fmt.Errorf("zoom %v out of range [%d, %d]", c.Zoom, minZoom, maxZoom)
	case c.Azimuth < 0 || c.Azimuth >= 360:
		return fmt.Errorf("azimuth %v out of range [0, 360)", c.Azimuth)
	case c.Tilt < 0 || c.Tilt > maxTilt:
		return fmt.Errorf("tilt %v out of range [0, %d]", c.Tilt, maxTilt)
	}
	return nil
}

// cameraFromArgs overlays the creation args sent by the host on base.
// Recognized keys are latitude, longitude, zoom, azimuth and tilt.
func cameraFromArgs(base CameraPosition, args map[string]any) (CameraPosition, error) {
	c := base
	for key, dst := range map[string]*float64{
		"latitude":  &c.Target.Latitude,
		"longitude": &c.Target.Longitude,
	} {
		f, ok, err := platform.Float64Arg(args, key)
		if err != nil {
			return base, err
		}
		if ok {
			*dst = f
		}
	}
	for key, dst := range map[string]*float32{
		"zoom":    &c.Zoom,
		"azimuth": &c.Azimuth,
		"tilt":    &c.Tilt,
	} {
		f, ok, err := platform.Float64Arg(args, key)
		if err != nil {
			return base, err
		}
		if ok {
			*dst = float32(f)
		}
	}
	return c, nil
}
