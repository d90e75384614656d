// Package config loads the optional mapbridge configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/mapbridge/pkg/log"
	"github.com/go-drift/mapbridge/pkg/mapkit"
	"github.com/go-drift/mapbridge/pkg/mapview"
)

// DefaultSDKVersion is the MapKit SDK version assumed when none is set.
const DefaultSDKVersion = "v4.4.0"

// EnvAPIKey overrides runtime.api_key.
const EnvAPIKey = "MAPBRIDGE_API_KEY"

// Config represents the optional mapbridge.yaml or mapbridge.toml file.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime" toml:"runtime"`
	Camera  CameraConfig  `yaml:"camera" toml:"camera"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// RuntimeConfig configures the shared MapKit runtime.
type RuntimeConfig struct {
	APIKey     string `yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	SDKVersion string `yaml:"sdk_version,omitempty" toml:"sdk_version,omitempty"`
}

// CameraConfig overrides parts of the initial camera. Unset fields keep
// the default.
type CameraConfig struct {
	Latitude  *float64 `yaml:"latitude,omitempty" toml:"latitude,omitempty"`
	Longitude *float64 `yaml:"longitude,omitempty" toml:"longitude,omitempty"`
	Zoom      *float64 `yaml:"zoom,omitempty" toml:"zoom,omitempty"`
	Azimuth   *float64 `yaml:"azimuth,omitempty" toml:"azimuth,omitempty"`
	Tilt      *float64 `yaml:"tilt,omitempty" toml:"tilt,omitempty"`
}

// LoggingConfig selects the log backend.
type LoggingConfig struct {
	Backend string `yaml:"backend,omitempty" toml:"backend,omitempty"`
	Level   string `yaml:"level,omitempty" toml:"level,omitempty"`
	JSON    bool   `yaml:"json,omitempty" toml:"json,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Path       string
	APIKey     string
	SDKVersion string
	Camera     mapview.CameraPosition
	Log        log.Options
}

// LoadOptional reads the config file at path if it exists. Files ending in
// .toml are parsed as TOML, everything else as YAML. An empty path or a
// missing file yields an empty Config.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

// Resolve loads the config file (if present), applies the environment and
// defaults, and validates the result.
func Resolve(path string) (*Resolved, error) {
	cfg, err := LoadOptional(path)
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.Runtime.APIKey)
	if env := strings.TrimSpace(os.Getenv(EnvAPIKey)); env != "" {
		apiKey = env
	}
	if apiKey != "" {
		if err := mapkit.ValidateCredential(apiKey); err != nil {
			return nil, fmt.Errorf("runtime.api_key: %w", err)
		}
	}

	version := strings.TrimSpace(cfg.Runtime.SDKVersion)
	if version == "" {
		version = DefaultSDKVersion
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return nil, fmt.Errorf("runtime.sdk_version %q is not a semantic version", cfg.Runtime.SDKVersion)
	}
	version = semver.Canonical(version)

	camera := cfg.Camera.apply(mapview.DefaultCameraPosition)
	if err := camera.Validate(); err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}

	logOpts := log.Options{
		Backend: log.Backend(strings.ToLower(strings.TrimSpace(cfg.Logging.Backend))),
		Level:   cfg.Logging.Level,
		JSON:    cfg.Logging.JSON,
	}
	switch logOpts.Backend {
	case "", log.BackendZerolog, log.BackendZap, log.BackendNop:
	default:
		return nil, fmt.Errorf("logging.backend %q is not one of zerolog, zap, nop", cfg.Logging.Backend)
	}

	return &Resolved{
		Path:       path,
		APIKey:     apiKey,
		SDKVersion: version,
		Camera:     camera,
		Log:        logOpts,
	}, nil
}

func (c CameraConfig) apply(base mapview.CameraPosition) mapview.CameraPosition {
	if c.Latitude != nil {
		base.Target.Latitude = *c.Latitude
	}
	if c.Longitude != nil {
		base.Target.Longitude = *c.Longitude
	}
	if c.Zoom != nil {
		base.Zoom = float32(*c.Zoom)
	}
	if c.Azimuth != nil {
		base.Azimuth = float32(*c.Azimuth)
	}
	if c.Tilt != nil {
		base.Tilt = float32(*c.Tilt)
	}
	return base
}
