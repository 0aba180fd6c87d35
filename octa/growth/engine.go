// Package growth advances the aggregate one tick at a time: every occupied
// cell may spawn into a random free neighbor inside the boundary.
package growth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/gekko3d/octagrow/octa/occupancy"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// DefaultSpawnChance is the per-second spawn rate of one cell.
const DefaultSpawnChance = 0.8

// DefaultChunkSize is the number of cells one sampling task covers.
const DefaultChunkSize = 4096

var ErrUnknownScaling = errors.New("unknown spawn scaling")

// SpawnScaling turns the configured chance and a tick length into the
// probability that one cell spawns during that tick.
type SpawnScaling func(chance, dt float64) float64

// LinearScaling spawns with probability chance*dt.
func LinearScaling(chance, dt float64) float64 { return chance * dt }

// AdditiveScaling spawns with probability chance+dt.
func AdditiveScaling(chance, dt float64) float64 { return chance + dt }

// ParseScaling maps a config name to a SpawnScaling.
func ParseScaling(name string) (SpawnScaling, error) {
	switch name {
	case "linear", "":
		return LinearScaling, nil
	case "additive":
		return AdditiveScaling, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScaling, name)
}

// Config tunes an Engine.
type Config struct {
	SpawnChance float64
	Scaling     SpawnScaling
	// ChunkSize is the number of cells sampled by one task.
	ChunkSize int
	// Workers limits concurrent sampling tasks; 0 uses GOMAXPROCS.
	Workers int
	Seed    uint64
}

// DefaultConfig returns the stock growth parameters.
func DefaultConfig() Config {
	return Config{
		SpawnChance: DefaultSpawnChance,
		Scaling:     LinearScaling,
		ChunkSize:   DefaultChunkSize,
		Seed:        1,
	}
}

// Placement is one accepted growth step.
type Placement struct {
	Position mgl32.Vec3
	Parent   mgl32.Vec3
	Face     lattice.FaceKind
}

// Counters summarizes what an engine has done so far.
type Counters struct {
	Ticks             uint64
	Candidates        uint64
	SquarePlacements  uint64
	HexagonPlacements uint64
}

// Engine owns a working occupancy index and grows it. It is not safe for
// concurrent use; the coordinator runs it on a single goroutine.
type Engine struct {
	cfg      Config
	index    occupancy.Index
	contains func(mgl32.Vec3) bool
	counters Counters
}

// NewEngine grows cells inside index, accepting only positions for which
// contains returns true. A nil contains accepts everything.
func NewEngine(cfg Config, index occupancy.Index, contains func(mgl32.Vec3) bool) *Engine {
	if cfg.Scaling == nil {
		cfg.Scaling = LinearScaling
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if contains == nil {
		contains = func(mgl32.Vec3) bool { return true }
	}
	return &Engine{cfg: cfg, index: index, contains: contains}
}

// Index exposes the working set.
func (e *Engine) Index() occupancy.Index { return e.index }

// Counters returns a copy of the engine counters.
func (e *Engine) Counters() Counters { return e.counters }

// Probability is the per-cell spawn probability for a tick of length dt.
func (e *Engine) Probability(dt float64) float64 {
	return e.cfg.Scaling(e.cfg.SpawnChance, dt)
}

// Seed inserts starting cells. Positions outside the boundary or already
// occupied are skipped. It returns the number inserted.
func (e *Engine) Seed(positions ...mgl32.Vec3) int {
	added := 0
	for _, p := range positions {
		if e.insert(p) {
			added++
		}
	}
	return added
}

// Load replaces the working set with the cells of src, in src's insertion order.
func (e *Engine) Load(src occupancy.Index) {
	e.index.Clear()
	e.index.Reserve(src.Len())
	src.Each(func(_ occupancy.CellID, pos mgl32.Vec3) bool {
		e.index.Insert(pos, occupancy.CellID(e.index.Len()))
		return true
	})
}

func (e *Engine) insert(p mgl32.Vec3) bool {
	snapped := e.index.Lattice().Snap(p)
	if !e.contains(snapped) {
		return false
	}
	return e.index.Insert(snapped, occupancy.CellID(e.index.Len()))
}

// Tick runs one sample/select/commit round and returns the placements that
// were committed. Sampling and neighbor selection run in parallel chunks
// that only read the index; the commit is serial. Two candidates choosing
// the same free cell yield one placement.
func (e *Engine) Tick(dt float64) []Placement {
	e.counters.Ticks++
	n := e.index.Len()
	prob := e.Probability(dt)
	if n == 0 || prob <= 0 {
		return nil
	}

	// Snapshot ids so the commit below cannot change what is sampled.
	ids := make([]occupancy.CellID, 0, n)
	e.index.Each(func(id occupancy.CellID, _ mgl32.Vec3) bool {
		ids = append(ids, id)
		return true
	})

	chunks := (len(ids) + e.cfg.ChunkSize - 1) / e.cfg.ChunkSize
	proposals := make([][]Placement, chunks)
	candidates := make([]int, chunks)

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for c := 0; c < chunks; c++ {
		lo := c * e.cfg.ChunkSize
		hi := min(lo+e.cfg.ChunkSize, len(ids))
		rng := rand.New(rand.NewPCG(e.cfg.Seed^e.counters.Ticks*0x9E3779B97F4A7C15, uint64(c)))
		g.Go(func() error {
			proposals[c], candidates[c] = e.sample(rng, ids[lo:hi], prob)
			return nil
		})
	}
	_ = g.Wait()

	var out []Placement
	for c, batch := range proposals {
		e.counters.Candidates += uint64(candidates[c])
		for _, p := range batch {
			if !e.index.Insert(p.Position, occupancy.CellID(e.index.Len())) {
				continue
			}
			if p.Face == lattice.FaceSquare {
				e.counters.SquarePlacements++
			} else {
				e.counters.HexagonPlacements++
			}
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) sample(rng *rand.Rand, ids []occupancy.CellID, prob float64) ([]Placement, int) {
	var out []Placement
	candidates := 0
	buf := make([]occupancy.Neighbor, 0, lattice.NeighborCount)
	for _, id := range ids {
		if rng.Float64() >= prob {
			continue
		}
		candidates++
		pos, ok := e.index.PositionForID(id)
		if !ok {
			continue
		}
		buf = e.index.AppendNeighbors(buf[:0], pos, occupancy.UnoccupiedOnly)
		avail := buf[:0]
		for _, n := range buf {
			if e.contains(n.Position) {
				avail = append(avail, n)
			}
		}
		if len(avail) == 0 {
			continue
		}
		pick := avail[rng.IntN(len(avail))]
		out = append(out, Placement{Position: pick.Position, Parent: pos, Face: pick.Face})
	}
	return out, candidates
}
