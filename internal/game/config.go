package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/core/systems/physics"
	"gopkg.in/yaml.v3"
)

// Config is the full game configuration. It can be read from YAML or JSON;
// unset keys keep their DefaultConfig values.
type Config struct {
	LogLevel   string           `json:"log_level" yaml:"log_level"`
	Session    SessionConfig    `json:"session" yaml:"session"`
	Plane      PlaneConfig      `json:"plane" yaml:"plane"`
	Wall       WallConfig       `json:"wall" yaml:"wall"`
	Projectile ProjectileConfig `json:"projectile" yaml:"projectile"`
	Highlight  HighlightConfig  `json:"highlight" yaml:"highlight"`
	Impact     ImpactConfig     `json:"impact" yaml:"impact"`
	Events     EventsConfig     `json:"events" yaml:"events"`
}

type SessionConfig struct {
	PlaneDetection bool `json:"plane_detection" yaml:"plane_detection"`
	// ResetOnInterruption tears the wall down when an interruption ends, so
	// the player re-anchors it against fresh tracking.
	ResetOnInterruption bool `json:"reset_on_interruption" yaml:"reset_on_interruption"`
	QueueSize           int  `json:"queue_size" yaml:"queue_size"`
}

type PlaneConfig struct {
	// SinkDepth lowers placeholders below the surface so aim rays hit content first.
	SinkDepth       float64 `json:"sink_depth" yaml:"sink_depth"`
	Thickness       float64 `json:"thickness" yaml:"thickness"`
	IncludeVertical bool    `json:"include_vertical" yaml:"include_vertical"`
	Color           string  `json:"color" yaml:"color"`
	Opacity         float64 `json:"opacity" yaml:"opacity"`
}

type BrickStyle string

const (
	StyleCube     BrickStyle = "cube"
	StyleTextured BrickStyle = "textured"
	StyleGlass    BrickStyle = "glass"
)

type WallConfig struct {
	Rows      int          `json:"rows" yaml:"rows"`
	Columns   int          `json:"columns" yaml:"columns"`
	Spacing   physics.Vec2 `json:"spacing" yaml:"spacing"`
	Origin    physics.Vec2 `json:"origin" yaml:"origin"`
	BrickSize float64      `json:"brick_size" yaml:"brick_size"`
	Style     BrickStyle   `json:"style" yaml:"style"`
	Color     string       `json:"color" yaml:"color"`
	Texture   string       `json:"texture" yaml:"texture"`
	Model     string       `json:"model" yaml:"model"`
	// DeleteOnPreciseHit turns a tap on a brick into a delete gesture.
	DeleteOnPreciseHit bool `json:"delete_on_precise_hit" yaml:"delete_on_precise_hit"`
}

type ProjectileConfig struct {
	Radius float64 `json:"radius" yaml:"radius"`
	Mass   float64 `json:"mass" yaml:"mass"`
	// Force scales the unit aim vector into the applied impulse.
	Force float64 `json:"force" yaml:"force"`
	// SpawnDistance is how far in front of the camera the projectile appears.
	SpawnDistance float64 `json:"spawn_distance" yaml:"spawn_distance"`
	UsePitch      bool    `json:"use_pitch" yaml:"use_pitch"`
	// Lifetime despawns projectiles that hit nothing. Zero keeps them forever.
	Lifetime Duration `json:"lifetime" yaml:"lifetime"`
	Color    string   `json:"color" yaml:"color"`
}

type HighlightConfig struct {
	Enabled  bool     `json:"enabled" yaml:"enabled"`
	Interval Duration `json:"interval" yaml:"interval"`
	Color    string   `json:"color" yaml:"color"`
	// Exclusive reverts the previous active brick before picking a new one.
	Exclusive bool `json:"exclusive" yaml:"exclusive"`
	// Seed makes the pick sequence reproducible. Empty seeds from the clock.
	Seed string `json:"seed" yaml:"seed"`
}

type ImpactConfig struct {
	// RequireActive restricts destruction to the highlighted brick.
	RequireActive bool `json:"require_active" yaml:"require_active"`
}

type EventsConfig struct {
	// Mute lists event types that are never published.
	Mute []string `json:"mute" yaml:"mute"`
}

// Duration reads Go duration strings ("5s") from YAML and JSON.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig mirrors the shipped game: a 3x2 cube wall, one highlighted
// target every five seconds.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Session: SessionConfig{
			PlaneDetection: true,
			QueueSize:      256,
		},
		Plane: PlaneConfig{
			SinkDepth: 0.01,
			Thickness: 0.001,
			Color:     "white",
			Opacity:   0.3,
		},
		Wall: WallConfig{
			Rows:      3,
			Columns:   2,
			Spacing:   physics.Vec2{X: 0.1, Y: 0.1},
			Origin:    physics.Vec2{X: -0.1, Y: 0},
			BrickSize: 0.1,
			Style:     StyleCube,
			Color:     "gray",
			Texture:   "brick",
			Model:     "glass_brick",
		},
		Projectile: ProjectileConfig{
			Radius:        0.025,
			Mass:          0.05,
			Force:         0.2,
			SpawnDistance: 0.1,
			UsePitch:      true,
			Lifetime:      Duration(10 * time.Second),
			Color:         "blue",
		},
		Highlight: HighlightConfig{
			Enabled:   true,
			Interval:  Duration(5 * time.Second),
			Color:     "red",
			Exclusive: true,
		},
		Impact: ImpactConfig{
			RequireActive: true,
		},
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		bad("%w", err)
	}
	if c.Wall.Rows < 1 || c.Wall.Columns < 1 {
		bad("wall: rows and columns must be at least 1, got %dx%d", c.Wall.Rows, c.Wall.Columns)
	}
	if c.Wall.Spacing.X <= 0 || c.Wall.Spacing.Y <= 0 {
		bad("wall: spacing must be positive, got %+v", c.Wall.Spacing)
	}
	if c.Wall.BrickSize <= 0 {
		bad("wall: brick_size must be positive")
	}
	switch c.Wall.Style {
	case StyleCube, StyleTextured, StyleGlass:
	default:
		bad("wall: unknown style %q", c.Wall.Style)
	}
	if c.Projectile.Radius <= 0 || c.Projectile.Mass <= 0 || c.Projectile.Force <= 0 {
		bad("projectile: radius, mass and force must be positive")
	}
	if c.Projectile.SpawnDistance < 0 || c.Projectile.Lifetime < 0 {
		bad("projectile: spawn_distance and lifetime must not be negative")
	}
	if c.Highlight.Enabled && c.Highlight.Interval <= 0 {
		bad("highlight: interval must be positive")
	}
	if c.Impact.RequireActive && !c.Highlight.Enabled {
		bad("impact: require_active needs the highlighter enabled")
	}
	if c.Plane.SinkDepth < 0 || c.Plane.Thickness < 0 {
		bad("plane: sink_depth and thickness must not be negative")
	}
	for _, typ := range c.Events.Mute {
		if !slices.Contains(eventTypes, typ) {
			bad("events: unknown event type %q", typ)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// LoadYAML overlays YAML from r on DefaultConfig and validates the result.
func LoadYAML(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadJSON overlays JSON from r on DefaultConfig and validates the result.
func LoadJSON(r io.Reader) (*Config, error) {
	c := DefaultConfig()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode json config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return nil, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, filepath.Ext(path))
	}
}
