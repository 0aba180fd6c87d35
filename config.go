package octagrow

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gekko3d/octagrow/octa/boundary"
	"github.com/gekko3d/octagrow/octa/growth"
	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/gekko3d/octagrow/octa/occupancy"
	"gopkg.in/yaml.v3"
)

var ErrUnknownStrategy = errors.New("unknown index strategy")

// Index strategies.
const (
	StrategyDense = "dense"
	StrategyHash  = "hash"
)

type Config struct {
	Lattice    LatticeConfig    `yaml:"lattice"`
	Growth     GrowthConfig     `yaml:"growth"`
	Boundary   BoundaryConfig   `yaml:"boundary"`
	Index      IndexConfig      `yaml:"index"`
	Visibility VisibilityConfig `yaml:"visibility"`
	Run        RunConfig        `yaml:"run"`
}

type LatticeConfig struct {
	// SquareDistance is the spacing between square-face neighbors.
	SquareDistance float32 `yaml:"square_distance"`
}

type GrowthConfig struct {
	SpawnChance float64 `yaml:"spawn_chance"`
	Scaling     string  `yaml:"scaling"`
	ChunkSize   int     `yaml:"chunk_size"`
	Workers     int     `yaml:"workers"`
	Seed        uint64  `yaml:"seed"`
	// WorkerDt is the fixed simulated step of one background tick, in seconds.
	WorkerDt float64 `yaml:"worker_dt"`
	// TickInterval paces the background worker. Zero only yields.
	TickInterval string `yaml:"tick_interval"`
}

type BoundaryConfig struct {
	// Shape is box, cylinder, prism or random.
	Shape  string     `yaml:"shape"`
	Center [3]float32 `yaml:"center"`
	Width  float32    `yaml:"width"`
	Depth  float32    `yaml:"depth"`
	Height float32    `yaml:"height"`
	Radius float32    `yaml:"radius"`
	Sides  int        `yaml:"sides"`
}

type IndexConfig struct {
	Strategy string `yaml:"strategy"`
	Buckets  int    `yaml:"buckets"`
	// Margin scales the boundary extents when sizing a dense grid.
	Margin  float32 `yaml:"margin"`
	Padding int     `yaml:"padding"`
	// GrowAt is the fill fraction of reserved capacity that triggers doubling.
	GrowAt float64 `yaml:"grow_at"`
}

type VisibilityConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Workers   int `yaml:"workers"`
}

type RunConfig struct {
	// CompleteAt stops growth once cells fill this fraction of the boundary volume.
	CompleteAt  float64 `yaml:"complete_at"`
	JoinTimeout string  `yaml:"join_timeout"`
	Debug       bool    `yaml:"debug"`
	StatsEvery  int     `yaml:"stats_every"`
	MaxFrames   int     `yaml:"max_frames"`
	FPS         int     `yaml:"fps"`
	OutputDir   string  `yaml:"output_dir"`
}

// Defaults for the boundary drawn when none is configured.
const (
	DefaultBoundaryWidth  = 700
	DefaultBoundaryDepth  = 700
	DefaultBoundaryHeight = 50
)

// DefaultConfig returns a validated configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig reads a YAML file and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fills defaults and rejects values the simulation cannot use.
func (c *Config) Validate() error {
	if c.Lattice.SquareDistance == 0 {
		c.Lattice.SquareDistance = lattice.DefaultSquareDistance
	}
	if c.Lattice.SquareDistance < 0 {
		return fmt.Errorf("lattice.square_distance must be positive")
	}

	if c.Growth.SpawnChance == 0 {
		c.Growth.SpawnChance = growth.DefaultSpawnChance
	}
	if c.Growth.SpawnChance < 0 {
		return fmt.Errorf("growth.spawn_chance must not be negative")
	}
	if c.Growth.Scaling == "" {
		c.Growth.Scaling = "linear"
	}
	if _, err := growth.ParseScaling(c.Growth.Scaling); err != nil {
		return fmt.Errorf("growth.scaling: %w", err)
	}
	if c.Growth.ChunkSize <= 0 {
		c.Growth.ChunkSize = growth.DefaultChunkSize
	}
	if c.Growth.Seed == 0 {
		c.Growth.Seed = 1
	}
	if c.Growth.WorkerDt <= 0 {
		c.Growth.WorkerDt = 1.0 / 60
	}
	if c.Growth.TickInterval == "" {
		c.Growth.TickInterval = "16ms"
	}
	if _, err := time.ParseDuration(c.Growth.TickInterval); err != nil {
		return fmt.Errorf("growth.tick_interval invalid: %w", err)
	}

	if c.Boundary.Shape == "" {
		c.Boundary.Shape = "box"
	}
	if c.Boundary.Shape != "random" {
		if _, err := boundary.ParseKind(c.Boundary.Shape); err != nil {
			return fmt.Errorf("boundary.shape: %w", err)
		}
	}
	if c.Boundary.Width <= 0 {
		c.Boundary.Width = DefaultBoundaryWidth
	}
	if c.Boundary.Depth <= 0 {
		c.Boundary.Depth = DefaultBoundaryDepth
	}
	if c.Boundary.Height <= 0 {
		c.Boundary.Height = DefaultBoundaryHeight
	}
	if c.Boundary.Radius <= 0 {
		c.Boundary.Radius = c.Boundary.Width / 2
	}
	if c.Boundary.Sides < 3 {
		c.Boundary.Sides = 6
	}

	switch c.Index.Strategy {
	case "":
		c.Index.Strategy = StrategyDense
	case StrategyDense, StrategyHash:
	default:
		return fmt.Errorf("index.strategy: %w: %q", ErrUnknownStrategy, c.Index.Strategy)
	}
	if c.Index.Buckets <= 0 {
		c.Index.Buckets = occupancy.DefaultBuckets
	}
	if c.Index.Margin < 1 {
		c.Index.Margin = 1.2
	}
	if c.Index.Padding <= 0 {
		c.Index.Padding = 4
	}
	if c.Index.GrowAt <= 0 || c.Index.GrowAt > 1 {
		c.Index.GrowAt = 0.9
	}

	if c.Visibility.ChunkSize <= 0 {
		c.Visibility.ChunkSize = 1000
	}

	if c.Run.CompleteAt <= 0 || c.Run.CompleteAt > 1 {
		c.Run.CompleteAt = 0.85
	}
	if c.Run.JoinTimeout == "" {
		c.Run.JoinTimeout = "2s"
	}
	if _, err := time.ParseDuration(c.Run.JoinTimeout); err != nil {
		return fmt.Errorf("run.join_timeout invalid: %w", err)
	}
	if c.Run.StatsEvery <= 0 {
		c.Run.StatsEvery = 60
	}
	if c.Run.FPS <= 0 {
		c.Run.FPS = 60
	}
	return nil
}

func (c *Config) tickInterval() time.Duration {
	d, _ := time.ParseDuration(c.Growth.TickInterval)
	return d
}

func (c *Config) joinTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Run.JoinTimeout)
	return d
}

func (c *Config) growthConfig() growth.Config {
	scaling, _ := growth.ParseScaling(c.Growth.Scaling)
	return growth.Config{
		SpawnChance: c.Growth.SpawnChance,
		Scaling:     scaling,
		ChunkSize:   c.Growth.ChunkSize,
		Workers:     c.Growth.Workers,
		Seed:        c.Growth.Seed,
	}
}
