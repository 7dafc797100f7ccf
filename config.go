package marcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/gekko3d/marcher/rt/sdf"
	"gopkg.in/yaml.v3"
)

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type CameraConfig struct {
	Fov      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
	Position [3]float32 `yaml:"position"`
}

// MarchConfig mirrors sdf.Settings with yaml names.
type MarchConfig struct {
	HitThreshold            float32 `yaml:"hit_threshold"`
	MaxMarchDistance        float32 `yaml:"max_march_distance"`
	ExternalDistanceCutDiff float32 `yaml:"external_distance_cut_diff"`
	SmoothUnion             float32 `yaml:"smooth_union"`
	ContactEdgeOffset       float32 `yaml:"contact_edge_offset"`
	ContactEdgeMin          float32 `yaml:"contact_edge_min"`
	ContactEdgeMax          float32 `yaml:"contact_edge_max"`
	EpsilonGrowth           float32 `yaml:"epsilon_growth"`
	Overshoot               float32 `yaml:"overshoot"`
	MaxSteps                int     `yaml:"max_steps"`

	Box     bool `yaml:"box"`
	Orbiter bool `yaml:"orbiter"`
}

func (m MarchConfig) Settings() sdf.Settings {
	return sdf.Settings{
		HitThreshold:            m.HitThreshold,
		MaxMarchDistance:        m.MaxMarchDistance,
		ExternalDistanceCutDiff: m.ExternalDistanceCutDiff,
		SmoothUnion:             m.SmoothUnion,
		ContactEdgeOffset:       m.ContactEdgeOffset,
		ContactEdgeMin:          m.ContactEdgeMin,
		ContactEdgeMax:          m.ContactEdgeMax,
		EpsilonGrowth:           m.EpsilonGrowth,
		Overshoot:               m.Overshoot,
		MaxSteps:                m.MaxSteps,
	}
}

func marchConfigFrom(s sdf.Settings) MarchConfig {
	return MarchConfig{
		HitThreshold:            s.HitThreshold,
		MaxMarchDistance:        s.MaxMarchDistance,
		ExternalDistanceCutDiff: s.ExternalDistanceCutDiff,
		SmoothUnion:             s.SmoothUnion,
		ContactEdgeOffset:       s.ContactEdgeOffset,
		ContactEdgeMin:          s.ContactEdgeMin,
		ContactEdgeMax:          s.ContactEdgeMax,
		EpsilonGrowth:           s.EpsilonGrowth,
		Overshoot:               s.Overshoot,
		MaxSteps:                s.MaxSteps,
		Box:                     true,
		Orbiter:                 true,
	}
}

type Config struct {
	Window WindowConfig `yaml:"window"`
	Camera CameraConfig `yaml:"camera"`
	March  MarchConfig  `yaml:"march"`

	// MotionBlur is the history weight of the blend pass.
	MotionBlur float32 `yaml:"motion_blur"`
	// PhysicsPeriodMs is the fixed physics step.
	PhysicsPeriodMs int    `yaml:"physics_period_ms"`
	EnvMap          string `yaml:"env_map"`
	Debug           bool   `yaml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Width: 1280, Height: 720, Title: "marcher"},
		Camera: CameraConfig{Fov: 80, Near: 0.5, Far: 1000, Position: [3]float32{0, 0, 5}},
		March:  marchConfigFrom(sdf.DefaultSettings()),

		MotionBlur:      0.2,
		PhysicsPeriodMs: 8,
		EnvMap:          "assets/envmap.png",
	}
}

// Raymarch is the ray march module these settings describe.
func (m MarchConfig) Raymarch() RaymarchModule {
	return RaymarchModule{Settings: m.Settings(), NoBox: !m.Box, NoOrbiter: !m.Orbiter}
}

// PhysicsPeriod is the physics ticker interval.
func (c Config) PhysicsPeriod() time.Duration {
	return time.Duration(c.PhysicsPeriodMs) * time.Millisecond
}

// LoadConfig reads path over DefaultConfig. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("camera planes near=%v far=%v are invalid", c.Camera.Near, c.Camera.Far)
	case c.Camera.Fov <= 0 || c.Camera.Fov >= 180:
		return fmt.Errorf("camera fov %v out of range", c.Camera.Fov)
	case c.PhysicsPeriodMs <= 0:
		return fmt.Errorf("physics period %dms must be positive", c.PhysicsPeriodMs)
	case c.MotionBlur < 0 || c.MotionBlur >= 1:
		return fmt.Errorf("motion blur %v must be in [0,1)", c.MotionBlur)
	}
	return nil
}
