package octagrow

import (
	"testing"
	"time"

	"github.com/gekko3d/octagrow/octa/boundary"
	"github.com/gekko3d/octagrow/octa/visibility"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig(t *testing.T, strategy string) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.Boundary = BoundaryConfig{Shape: "box", Width: 60, Depth: 60, Height: 30}
	cfg.Index.Strategy = strategy
	cfg.Index.Buckets = 1 << 12
	cfg.Growth.SpawnChance = 1
	cfg.Growth.Seed = 7
	cfg.Run.CompleteAt = 1
	require.NoError(t, cfg.Validate())
	return cfg
}

func newSim(t *testing.T, cfg *Config) *Simulation {
	t.Helper()
	s, err := New(cfg, nil)
	require.NoError(t, err)
	return s
}

func TestSimulationSeeds(t *testing.T) {
	s := newSim(t, smallConfig(t, StrategyDense))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, StateIdle, s.State())
	assert.True(t, s.IsOccupied(mgl32.Vec3{}))
	assert.Equal(t, 0, s.Exposure(mgl32.Vec3{}))
	assert.NotEmpty(t, s.RunID())
	assert.False(t, s.BoundaryLocked())
}

func TestSimulationContainment(t *testing.T) {
	for _, strategy := range []string{StrategyDense, StrategyHash} {
		t.Run(strategy, func(t *testing.T) {
			s := newSim(t, smallConfig(t, strategy))
			for i := 0; i < 25; i++ {
				s.Step(1)
			}
			require.Greater(t, s.Count(), 50)

			shape := s.Boundary()
			s.EachCell(func(pos mgl32.Vec3, exposure int) bool {
				require.True(t, shape.Contains(pos), "%v outside %s", pos, shape)
				require.Equal(t, len(s.index.OccupiedNeighbors(pos)), exposure, "exposure of %v", pos)
				return true
			})
		})
	}
}

func TestSimulationStrategiesAgree(t *testing.T) {
	run := func(strategy string) []mgl32.Vec3 {
		s := newSim(t, smallConfig(t, strategy))
		for i := 0; i < 10; i++ {
			s.Step(1)
		}
		var out []mgl32.Vec3
		s.EachCell(func(pos mgl32.Vec3, _ int) bool {
			out = append(out, pos)
			return true
		})
		return out
	}

	dense, hash := run(StrategyDense), run(StrategyHash)
	if diff := cmp.Diff(dense, hash); diff != "" {
		t.Fatalf("growth differs between strategies (-dense +hash):\n%s", diff)
	}
}

func TestSimulationConcurrentDrain(t *testing.T) {
	cfg := smallConfig(t, StrategyHash)
	cfg.Growth.WorkerDt = 1
	cfg.Growth.TickInterval = "1h"
	s := newSim(t, cfg)

	require.True(t, s.Start())
	defer s.Stop()
	assert.Equal(t, StateRunning, s.State())
	assert.True(t, s.BoundaryLocked())

	require.Eventually(t, func() bool { return s.coord.Pending() > 0 }, 2*time.Second, time.Millisecond)

	before := s.Count()
	added := s.Frame()
	assert.Positive(t, added)
	assert.Equal(t, before+added, s.Count())
	assert.Zero(t, s.coord.Pending())

	assert.Zero(t, s.Frame(), "draining an empty batch is a no-op")
	assert.Equal(t, before+added, s.Count())

	require.NoError(t, s.Stop())
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, s.Frame())
}

func TestSimulationRunsInBackground(t *testing.T) {
	cfg := smallConfig(t, StrategyDense)
	cfg.Growth.TickInterval = "0s"
	s := newSim(t, cfg)
	require.True(t, s.Start())
	assert.False(t, s.Start())

	require.Eventually(t, func() bool {
		s.Frame()
		return s.Count() > 100
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	// Growth resumes after a restart from the applied state.
	n := s.Count()
	require.True(t, s.Start())
	require.Eventually(t, func() bool {
		s.Frame()
		return s.Count() > n
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, s.Stop())
	assert.Positive(t, s.Statistics().Ticks)
}

func TestBoundaryLocksOnStart(t *testing.T) {
	s := newSim(t, smallConfig(t, StrategyDense))

	assert.True(t, s.ResizeBoundary(boundary.ResizeInput{Right: true}))
	assert.Equal(t, float32(70), s.Boundary().Width)
	assert.True(t, s.SetBoundaryDimensions(40, 40, 20))

	s.Step(1)
	assert.True(t, s.BoundaryLocked())
	assert.False(t, s.SetBoundaryDimensions(100, 100, 100))
	assert.False(t, s.ResizeBoundary(boundary.ResizeInput{Up: true}))
	assert.Equal(t, float32(40), s.Boundary().Width)

	s.Reset()
	assert.False(t, s.BoundaryLocked(), "reset builds a fresh boundary")
	assert.Equal(t, 1, s.Count())
}

func TestSimulationCompletes(t *testing.T) {
	cfg := smallConfig(t, StrategyHash)
	cfg.Run.CompleteAt = 0.2
	s := newSim(t, cfg)

	for i := 0; i < 100 && s.State() != StateCompleted; i++ {
		s.Step(1)
	}
	require.Equal(t, StateCompleted, s.State())
	assert.GreaterOrEqual(t, s.Progress(), 0.2)

	n := s.Count()
	assert.Zero(t, s.Step(1))
	assert.False(t, s.Start())
	assert.Equal(t, n, s.Count())

	id := s.RunID()
	s.Reset()
	assert.Equal(t, StateIdle, s.State())
	assert.NotEqual(t, id, s.RunID())
}

func TestSnapshotGroupsByExposure(t *testing.T) {
	s := newSim(t, smallConfig(t, StrategyHash))
	for i := 0; i < 12; i++ {
		s.Step(1)
	}

	snap := s.Snapshot()
	assert.Same(t, snap, s.Snapshot(), "unchanged simulation reuses the snapshot")
	assert.Equal(t, s.Count(), snap.Count)
	assert.Equal(t, s.tracker.VisibleCount(), snap.Visible)
	assert.Empty(t, snap.Classes[visibility.Classes-1], "interior cells are not drawn")

	total := 0
	hist := s.tracker.Histogram()
	for class, cells := range snap.Classes[:visibility.Classes-1] {
		assert.Len(t, cells, hist[class])
		for _, p := range cells {
			assert.Equal(t, class, s.Exposure(p))
		}
		total += len(cells)
	}
	assert.Equal(t, snap.Visible, total)

	s.Step(1)
	assert.NotSame(t, snap, s.Snapshot())
}

func TestStatistics(t *testing.T) {
	s := newSim(t, smallConfig(t, StrategyHash))
	for i := 0; i < 8; i++ {
		s.Step(1)
	}
	st := s.Statistics()

	assert.Equal(t, s.RunID(), st.RunID)
	assert.Equal(t, s.Count(), st.Cells)
	assert.EqualValues(t, 8, st.Ticks)
	assert.EqualValues(t, st.Cells-1, st.SquarePlacements+st.HexagonPlacements)
	assert.Equal(t, st.Cells, st.Index.Cells)

	sum := 0
	for _, n := range st.Histogram {
		sum += n
	}
	assert.Equal(t, st.Cells, sum)
	assert.Contains(t, st.String(), "idle")
	assert.Contains(t, st.Timings, "apply")

	squares, hexagons := s.FreeFaces()
	assert.Positive(t, squares+hexagons)
}
