package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full construction-time configuration of a simulation run.
type Config struct {
	Sphere SphereConfig `json:"sphere" yaml:"sphere"`
	Agent  AgentConfig  `json:"agent" yaml:"agent"`
	Camera CameraConfig `json:"camera" yaml:"camera"`
	Loop   LoopConfig   `json:"loop" yaml:"loop"`
	Server ServerConfig `json:"server" yaml:"server"`
	Log    LogConfig    `json:"log" yaml:"log"`
}

type SphereConfig struct {
	Radius float64 `json:"radius" yaml:"radius"`
}

type AgentConfig struct {
	ForwardSpeed       float64 `json:"forward_speed" yaml:"forward_speed"`
	RotationSpeed      float64 `json:"rotation_speed" yaml:"rotation_speed"`
	HeightAboveSurface float64 `json:"height_above_surface" yaml:"height_above_surface"`
	// MaxDeltaTime caps a single tick's elapsed time in seconds; 0 disables it.
	MaxDeltaTime float64 `json:"max_delta_time,omitempty" yaml:"max_delta_time,omitempty"`
	// Start and Forward override the initial pose when both are set.
	Start   []float64 `json:"start,omitempty" yaml:"start,omitempty"`
	Forward []float64 `json:"forward,omitempty" yaml:"forward,omitempty"`
}

type CameraConfig struct {
	Distance          float64   `json:"distance" yaml:"distance"`
	Height            float64   `json:"height" yaml:"height"`
	DampingFactor     float64   `json:"damping_factor" yaml:"damping_factor"`
	LookAheadDistance float64   `json:"look_ahead_distance" yaml:"look_ahead_distance"`
	Start             []float64 `json:"start,omitempty" yaml:"start,omitempty"`
}

type LoopConfig struct {
	// TickRate is the number of frames per second driven by Run.
	TickRate float64 `json:"tick_rate" yaml:"tick_rate"`
	// MaxFrames stops the loop after that many frames; 0 runs until cancelled.
	MaxFrames int64 `json:"max_frames,omitempty" yaml:"max_frames,omitempty"`
	// SummaryEvery logs a pose summary every N frames; 0 disables it.
	SummaryEvery int64 `json:"summary_every,omitempty" yaml:"summary_every,omitempty"`
}

type ServerConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	Host         string        `json:"host" yaml:"host"`
	Port         int           `json:"port" yaml:"port"`
	WriteTimeout time.Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
	// SendBuffer is the number of frames queued per client before frames are dropped.
	SendBuffer int `json:"send_buffer,omitempty" yaml:"send_buffer,omitempty"`
}

type LogConfig struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

// Default returns the stock tuning: a radius 10 planet, an agent flying 1.5
// above it and a camera trailing 8 behind and 3 above.
func Default() Config {
	return Config{
		Sphere: SphereConfig{Radius: 10},
		Agent: AgentConfig{
			ForwardSpeed:       2,
			RotationSpeed:      3,
			HeightAboveSurface: 1.5,
		},
		Camera: CameraConfig{
			Distance:          8,
			Height:            3,
			DampingFactor:     0.1,
			LookAheadDistance: 5,
			Start:             []float64{0, 0, 5},
		},
		Loop: LoopConfig{
			TickRate:     60,
			SummaryEvery: 600,
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8090,
			WriteTimeout: 2 * time.Second,
			SendBuffer:   64,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// LoadYAML overlays the YAML document in r on the defaults and validates
// the result.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a YAML file. An empty path yields the validated defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		c := Default()
		return &c, c.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadYAML(f)
}

// Validate checks every tunable against its invariant.
func (c *Config) Validate() error {
	if !(c.Sphere.Radius > 0) || math.IsInf(c.Sphere.Radius, 0) {
		return invalid("sphere.radius must be positive, got %v", c.Sphere.Radius)
	}

	for name, v := range map[string]float64{
		"agent.forward_speed":  c.Agent.ForwardSpeed,
		"agent.rotation_speed": c.Agent.RotationSpeed,
		"agent.max_delta_time": c.Agent.MaxDeltaTime,
	} {
		if !finite(v) || v < 0 {
			return invalid("%s must be a non-negative number, got %v", name, v)
		}
	}
	if !finite(c.Agent.HeightAboveSurface) || c.Sphere.Radius+c.Agent.HeightAboveSurface <= 0 {
		return invalid("agent.height_above_surface %v puts the agent below the center", c.Agent.HeightAboveSurface)
	}
	if (c.Agent.Start == nil) != (c.Agent.Forward == nil) {
		return invalid("agent.start and agent.forward must be set together")
	}
	for name, v := range map[string][]float64{
		"agent.start":   c.Agent.Start,
		"agent.forward": c.Agent.Forward,
		"camera.start":  c.Camera.Start,
	} {
		if v != nil && len(v) != 3 {
			return invalid("%s must have 3 components, got %d", name, len(v))
		}
	}

	if !(c.Camera.DampingFactor > 0 && c.Camera.DampingFactor <= 1) {
		return invalid("camera.damping_factor must be in (0, 1], got %v", c.Camera.DampingFactor)
	}
	for name, v := range map[string]float64{
		"camera.distance":            c.Camera.Distance,
		"camera.height":              c.Camera.Height,
		"camera.look_ahead_distance": c.Camera.LookAheadDistance,
	} {
		if !finite(v) {
			return invalid("%s must be finite, got %v", name, v)
		}
	}

	if !finite(c.Loop.TickRate) || c.Loop.TickRate <= 0 {
		return invalid("loop.tick_rate must be positive, got %v", c.Loop.TickRate)
	}
	if c.Loop.MaxFrames < 0 || c.Loop.SummaryEvery < 0 {
		return invalid("loop frame counts must be non-negative")
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return invalid("server.port %d out of range", c.Server.Port)
	}
	if c.Server.SendBuffer < 0 {
		return invalid("server.send_buffer must be non-negative")
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return invalid("log.encoding must be json or console, got %q", c.Log.Encoding)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
