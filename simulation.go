// Package octagrow grows an aggregate of truncated octahedra on a BCC
// lattice inside a boundary. Simulation owns the whole state; a background
// worker proposes growth and the main thread applies it once per frame.
package octagrow

import (
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/gekko3d/octagrow/octa/boundary"
	"github.com/gekko3d/octagrow/octa/growth"
	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/gekko3d/octagrow/octa/occupancy"
	"github.com/gekko3d/octagrow/octa/visibility"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	}
	return "idle"
}

// Simulation is the single owner of the boundary, the authoritative index,
// the exposure tracker and the growth worker. All methods are main-thread
// only.
type Simulation struct {
	cfg      *Config
	log      Logger
	lat      lattice.Lattice
	rng      *rand.Rand
	profiler *Profiler

	runID   string
	shape   *boundary.Shape
	index   occupancy.Index
	tracker *visibility.Tracker

	// engine mirrors index plus whatever it has proposed since; nil when stale.
	engine *growth.Engine
	coord  *Coordinator

	starts    uint64
	ticks     uint64
	squares   uint64
	hexagons  uint64
	capacity  int
	completed bool

	batch    []growth.Placement
	inserted []mgl32.Vec3

	version  uint64
	snapshot atomic.Pointer[RenderSnapshot]
}

// New builds a simulation from cfg, which is validated first. A nil cfg
// uses DefaultConfig; a nil logger discards output.
func New(cfg *Config, logger Logger) (*Simulation, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		cfg:      cfg,
		log:      orNop(logger),
		lat:      lattice.New(cfg.Lattice.SquareDistance),
		rng:      rand.New(rand.NewPCG(cfg.Growth.Seed, cfg.Growth.Seed^0xDA3E39CB94B95BDB)),
		profiler: NewProfiler(),
	}
	s.Reset()
	return s, nil
}

// Reset stops the worker, clears every cell, regenerates the boundary and
// reseeds it.
func (s *Simulation) Reset() {
	if err := s.Stop(); err != nil {
		s.log.Warnf("reset: %v", err)
	}
	s.runID = uuid.NewString()
	s.shape = s.newShape()
	s.index = s.newIndex()
	s.tracker = visibility.NewTracker(s.index, s.cfg.Visibility.ChunkSize, s.cfg.Visibility.Workers)
	s.engine = nil
	s.coord = nil
	s.ticks, s.squares, s.hexagons = 0, 0, 0
	s.capacity = 0
	s.completed = false
	s.reseed()
	s.tracker.UpdateAll()
	s.version++
	s.log.Infof("run %s: %s, %d seed cell(s)", s.runID, s.shape, s.index.Len())
}

func (s *Simulation) newShape() *boundary.Shape {
	b := s.cfg.Boundary
	center := mgl32.Vec3(b.Center)
	if b.Shape == "random" {
		return boundary.Random(s.rng, center)
	}
	kind, _ := boundary.ParseKind(b.Shape)
	switch kind {
	case boundary.KindCylinder:
		return boundary.NewCylinder(center, b.Radius, b.Height)
	case boundary.KindPrism:
		return boundary.NewPrism(center, regularPolygon(b.Sides, b.Radius), b.Height)
	}
	return boundary.NewBox(center, b.Width, b.Depth, b.Height)
}

func regularPolygon(sides int, radius float32) []mgl32.Vec2 {
	poly := make([]mgl32.Vec2, sides)
	for i := range poly {
		a := 2 * math.Pi * float64(i) / float64(sides)
		poly[i] = mgl32.Vec2{radius * float32(math.Cos(a)), radius * float32(math.Sin(a))}
	}
	return poly
}

// newIndex sizes a fresh index for the current boundary.
func (s *Simulation) newIndex() occupancy.Index {
	if s.cfg.Index.Strategy == StrategyHash {
		return occupancy.NewSpatialHash(s.lat, s.cfg.Index.Buckets)
	}
	lo, hi := s.shape.Bounds()
	return occupancy.NewDenseGridForBounds(s.lat, lo, hi, s.cfg.Index.Margin, s.cfg.Index.Padding)
}

func (s *Simulation) reseed() {
	seed := s.lat.Snap(s.shape.Center)
	if !s.shape.Contains(seed) {
		// A thin boundary can exclude the nearest lattice point.
		for _, n := range s.lat.NeighborPositions(seed) {
			if s.shape.Contains(n) {
				seed = n
				break
			}
		}
	}
	if !s.shape.Contains(seed) || !s.index.Insert(seed, 0) {
		s.log.Warnf("no lattice point near the center of %s; nothing seeded", s.shape)
	}
}

// SetBoundaryDimensions changes the boundary before the first Start. It
// reports false when the boundary is locked or growth is running.
func (s *Simulation) SetBoundaryDimensions(width, depth, height float32) bool {
	if s.Running() || !s.shape.SetDimensions(width, depth, height) {
		return false
	}
	s.version++
	return true
}

// ResizeBoundary applies one tick of resize controls before the first Start.
func (s *Simulation) ResizeBoundary(in boundary.ResizeInput) bool {
	if s.Running() || !s.shape.Resize(in) {
		return false
	}
	s.version++
	return true
}

// lockBoundary freezes the boundary the first time growth runs and resizes
// the index for it, dropping seeds the final boundary excludes.
func (s *Simulation) lockBoundary() {
	if s.shape.Locked() {
		return
	}
	s.shape.Lock()

	old := s.index
	s.index = s.newIndex()
	s.index.Reserve(old.Len())
	dropped := 0
	old.Each(func(_ occupancy.CellID, pos mgl32.Vec3) bool {
		if !s.shape.Contains(pos) || !s.index.Insert(pos, occupancy.CellID(s.index.Len())) {
			dropped++
		}
		return true
	})
	if s.index.Len() == 0 {
		s.reseed()
	}
	s.capacity = s.index.Len()
	s.tracker = visibility.NewTracker(s.index, s.cfg.Visibility.ChunkSize, s.cfg.Visibility.Workers)
	s.tracker.UpdateAll()
	s.engine = nil
	s.version++
	s.log.Infof("boundary locked: %s (volume %.0f), %d cell(s), %d dropped", s.shape, s.shape.Volume(), s.index.Len(), dropped)
}

// prepareEngine locks the boundary and makes sure the engine mirrors the
// authoritative index.
func (s *Simulation) prepareEngine() {
	s.lockBoundary()
	if s.engine != nil {
		return
	}
	s.starts++
	cfg := s.cfg.growthConfig()
	cfg.Seed ^= s.starts * 0x9E3779B97F4A7C15
	working := s.newIndex()
	s.engine = growth.NewEngine(cfg, working, s.shape.Contains)
	s.engine.Load(s.index)
}

// Start locks the boundary and launches the background worker. It reports
// false when already running or completed.
func (s *Simulation) Start() bool {
	if s.Running() || s.completed {
		return false
	}
	s.prepareEngine()
	s.coord = NewCoordinator(s.engine, CoordinatorOptions{
		Dt:          s.cfg.Growth.WorkerDt,
		Interval:    s.cfg.tickInterval(),
		JoinTimeout: s.cfg.joinTimeout(),
		Debug:       s.cfg.Run.Debug,
		Logger:      s.log,
	})
	return s.coord.Start()
}

// Stop halts the worker. Growth not yet applied by Frame is lost.
func (s *Simulation) Stop() error {
	if s.coord == nil || !s.coord.Running() {
		return nil
	}
	if err := s.coord.Stop(); err != nil {
		return err
	}
	s.ticks += s.coord.Ticks()
	s.coord = nil
	// The worker's index is ahead of ours by the discarded batch.
	s.engine = nil
	return nil
}

func (s *Simulation) Running() bool {
	return s.coord != nil && s.coord.Running()
}

func (s *Simulation) State() State {
	switch {
	case s.completed:
		return StateCompleted
	case s.Running():
		return StateRunning
	}
	return StateIdle
}

// Frame drains the worker and applies its growth. Call once per render frame.
// It returns the number of cells added.
func (s *Simulation) Frame() int {
	if !s.Running() {
		return 0
	}
	defer s.profiler.Scope("frame")()

	end := s.profiler.Scope("drain")
	s.batch = s.coord.Drain(s.batch)
	end()
	return s.apply(s.batch)
}

// Step runs one growth tick synchronously. It does nothing while the worker
// runs or after completion.
func (s *Simulation) Step(dt float64) int {
	if s.Running() || s.completed {
		return 0
	}
	s.prepareEngine()
	end := s.profiler.Scope("tick")
	placed := s.engine.Tick(dt)
	end()
	s.ticks++
	return s.apply(placed)
}

func (s *Simulation) apply(placed []growth.Placement) int {
	if len(placed) == 0 {
		return 0
	}

	end := s.profiler.Scope("apply")
	s.reserve(len(placed))
	s.inserted = s.inserted[:0]
	for _, p := range placed {
		if !s.shape.Contains(p.Position) {
			continue
		}
		if !s.index.Insert(p.Position, occupancy.CellID(s.index.Len())) {
			continue
		}
		s.inserted = append(s.inserted, p.Position)
		if p.Face == lattice.FaceSquare {
			s.squares++
		} else {
			s.hexagons++
		}
	}
	end()

	end = s.profiler.Scope("visibility")
	s.tracker.UpdateForNewCells(s.inserted)
	end()

	if len(s.inserted) > 0 {
		s.version++
	}
	s.profiler.SetCount("cells", s.index.Len())
	s.profiler.SetCount("visible", s.tracker.VisibleCount())
	s.profiler.SetCount("applied", len(s.inserted))
	s.checkComplete()
	return len(s.inserted)
}

// reserve doubles index capacity ahead of a batch once the fill threshold is crossed.
func (s *Simulation) reserve(n int) {
	need := s.index.Len() + n
	if float64(need) < float64(s.capacity)*s.cfg.Index.GrowAt {
		return
	}
	capacity := max(2*s.capacity, need, 1024)
	s.index.Reserve(capacity - s.index.Len())
	s.log.Debugf("index capacity %d -> %d", s.capacity, capacity)
	s.capacity = capacity
}

func (s *Simulation) checkComplete() {
	if s.completed || s.Progress() < s.cfg.Run.CompleteAt {
		return
	}
	if err := s.Stop(); err != nil {
		s.log.Errorf("stop on completion: %v", err)
		return
	}
	s.completed = true
	s.log.Infof("run %s completed: %d cells fill %.1f%% of the boundary", s.runID, s.index.Len(), 100*s.Progress())
}

// Progress is the fraction of the boundary volume filled by cells.
func (s *Simulation) Progress() float64 {
	v := s.shape.Volume()
	if v <= 0 {
		return 0
	}
	return float64(s.index.Len()) * s.lat.CellVolume() / v
}

// Count is the number of cells.
func (s *Simulation) Count() int { return s.index.Len() }

func (s *Simulation) RunID() string { return s.runID }

func (s *Simulation) Lattice() lattice.Lattice { return s.lat }

func (s *Simulation) Profiler() *Profiler { return s.profiler }

// Boundary returns an unlocked copy of the boundary.
func (s *Simulation) Boundary() *boundary.Shape { return s.shape.Clone() }

// BoundaryLocked reports whether the boundary can still be resized.
func (s *Simulation) BoundaryLocked() bool { return s.shape.Locked() }

// Wireframe describes the boundary for an external renderer.
func (s *Simulation) Wireframe() []boundary.Segment { return s.shape.Wireframe() }

// IsOccupied reports whether the cell nearest p is filled.
func (s *Simulation) IsOccupied(p mgl32.Vec3) bool { return s.index.IsOccupied(p) }

// Exposure returns the number of filled neighbors of the cell at p, or -1.
func (s *Simulation) Exposure(p mgl32.Vec3) int {
	id, ok := s.index.FindCellID(p)
	if !ok {
		return -1
	}
	return s.tracker.Exposure(id)
}

// EachCell visits every cell with its exposure count in insertion order.
func (s *Simulation) EachCell(fn func(pos mgl32.Vec3, exposure int) bool) {
	s.index.Each(func(id occupancy.CellID, pos mgl32.Vec3) bool {
		return fn(pos, s.tracker.Exposure(id))
	})
}
