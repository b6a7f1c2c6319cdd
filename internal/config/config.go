// Package config loads the YAML configuration for the gesture controller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/leapball/internal/gesture"
	"github.com/ayusman/leapball/internal/tracking"
)

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// Config is the top-level application configuration.
type Config struct {
	LogLevel        string        `yaml:"log_level"`
	HistorySize     int           `yaml:"history_size"`
	Detectors       []string      `yaml:"detectors"`
	Pinch           PinchConfig   `yaml:"pinch"`
	Flipper         FlipperConfig `yaml:"flipper"`
	Sensor          SensorConfig  `yaml:"sensor"`
	Server          ServerConfig  `yaml:"server"`
	PluginDir       string        `yaml:"plugin_dir"`
	PluginTimeoutMs int           `yaml:"plugin_timeout_ms"`
	Bindings        []Binding     `yaml:"bindings"`
}

// PinchConfig holds the pinch detector thresholds.
type PinchConfig struct {
	EngageThreshold   float64 `yaml:"engage_threshold"`
	ReleaseHysteresis float64 `yaml:"release_hysteresis"`
}

// FlipperConfig holds the flipper detector thresholds.
type FlipperConfig struct {
	MaxHeight float64 `yaml:"max_height"`
	MinHeight float64 `yaml:"min_height"`
}

// SensorConfig controls the camera frame source.
type SensorConfig struct {
	CameraID        int     `yaml:"camera_id"`
	IdleFPS         int     `yaml:"idle_fps"`
	ActiveFPS       int     `yaml:"active_fps"`
	IdleTimeoutMs   int     `yaml:"idle_timeout_ms"`
	MotionThreshold float64 `yaml:"motion_threshold"`
	ScaleMM         float64 `yaml:"scale_mm"`
}

// ServerConfig controls the HTTP server. An empty Addr disables it.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Binding maps an event kind to a plugin action.
type Binding struct {
	Event  string         `yaml:"event"`
	Plugin string         `yaml:"plugin"`
	Action string         `yaml:"action"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	home, _ := os.UserHomeDir()
	pluginDir := ""
	if home != "" {
		pluginDir = filepath.Join(home, ".leapball", "plugins")
	}

	return Config{
		LogLevel:    "info",
		HistorySize: tracking.DefaultHistorySize,
		Detectors:   []string{gesture.PinchName, gesture.FlipperName},
		Pinch: PinchConfig{
			EngageThreshold:   gesture.DefaultPinchThreshold,
			ReleaseHysteresis: gesture.DefaultReleaseHysteresis,
		},
		Flipper: FlipperConfig{
			MaxHeight: gesture.DefaultFlipperMaxHeight,
			MinHeight: gesture.DefaultFlipperMinHeight,
		},
		Sensor: SensorConfig{
			IdleFPS:         5,
			ActiveFPS:       15,
			IdleTimeoutMs:   2000,
			MotionThreshold: 1.0,
			ScaleMM:         300,
		},
		Server:          ServerConfig{Addr: ":8080"},
		PluginDir:       pluginDir,
		PluginTimeoutMs: 5000,
	}
}

// Load reads the YAML file at path over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks thresholds, detector names and bindings.
func (c Config) Validate() error {
	if c.HistorySize < 2 {
		return fmt.Errorf("%w: history_size must be at least 2, got %d", ErrInvalid, c.HistorySize)
	}
	if c.Pinch.EngageThreshold <= 0 {
		return fmt.Errorf("%w: pinch.engage_threshold must be positive", ErrInvalid)
	}
	if c.Pinch.ReleaseHysteresis < 0 {
		return fmt.Errorf("%w: pinch.release_hysteresis must not be negative", ErrInvalid)
	}
	if c.Flipper.MaxHeight >= c.Flipper.MinHeight {
		return fmt.Errorf("%w: flipper.max_height (%.2f) must be below flipper.min_height (%.2f)",
			ErrInvalid, c.Flipper.MaxHeight, c.Flipper.MinHeight)
	}
	if c.Sensor.IdleFPS <= 0 || c.Sensor.ActiveFPS <= 0 {
		return fmt.Errorf("%w: sensor fps must be positive", ErrInvalid)
	}

	for _, name := range c.Detectors {
		if name != gesture.PinchName && name != gesture.FlipperName {
			return fmt.Errorf("%w: unknown detector %q", ErrInvalid, name)
		}
	}

	for i, b := range c.Bindings {
		if _, err := gesture.ParseKind(b.Event); err != nil {
			return fmt.Errorf("%w: binding %d: %v", ErrInvalid, i, err)
		}
		if b.Plugin == "" || b.Action == "" {
			return fmt.Errorf("%w: binding %d: plugin and action are required", ErrInvalid, i)
		}
	}

	return nil
}

// DetectorEnabled reports whether the named detector is listed.
func (c Config) DetectorEnabled(name string) bool {
	for _, n := range c.Detectors {
		if n == name {
			return true
		}
	}
	return false
}

// PinchDetector returns the pinch thresholds in detector form.
func (c Config) PinchDetector() gesture.PinchConfig {
	return gesture.PinchConfig{
		EngageThreshold:   c.Pinch.EngageThreshold,
		ReleaseHysteresis: c.Pinch.ReleaseHysteresis,
	}
}

// FlipperDetector returns the flipper thresholds in detector form.
func (c Config) FlipperDetector() gesture.FlipperConfig {
	return gesture.FlipperConfig{
		MaxHeight: c.Flipper.MaxHeight,
		MinHeight: c.Flipper.MinHeight,
	}
}
