package octagrow

import (
	"fmt"
	"time"

	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/gekko3d/octagrow/octa/occupancy"
	"github.com/gekko3d/octagrow/octa/visibility"
	"github.com/go-gl/mathgl/mgl32"
)

// Statistics is a read-only diagnostics view. Nothing in the simulation
// depends on it.
type Statistics struct {
	RunID     string
	State     State
	Boundary  string
	Cells     int
	Visible   int
	Histogram [visibility.Classes]int

	SquarePlacements  uint64
	HexagonPlacements uint64
	Ticks             uint64
	Progress          float64

	Index   occupancy.LoadStats
	Timings map[string]time.Duration
}

func (s *Simulation) Statistics() Statistics {
	ticks := s.ticks
	if s.Running() {
		ticks += s.coord.Ticks()
	}
	return Statistics{
		RunID:             s.runID,
		State:             s.State(),
		Boundary:          s.shape.String(),
		Cells:             s.index.Len(),
		Visible:           s.tracker.VisibleCount(),
		Histogram:         s.tracker.Histogram(),
		SquarePlacements:  s.squares,
		HexagonPlacements: s.hexagons,
		Ticks:             ticks,
		Progress:          s.Progress(),
		Index:             s.index.Stats(),
		Timings:           s.profiler.Timings(),
	}
}

func (st Statistics) String() string {
	return fmt.Sprintf("%s cells=%d visible=%d progress=%.1f%% ticks=%d square/hex=%d/%d buckets=%d/%d max=%d avg=%.2f",
		st.State, st.Cells, st.Visible, 100*st.Progress, st.Ticks,
		st.SquarePlacements, st.HexagonPlacements,
		st.Index.NonEmptyBuckets, st.Index.Buckets, st.Index.MaxBucket, st.Index.AvgBucket)
}

// FreeFaces counts, over every cell, the unoccupied in-boundary neighbors by
// face kind. It walks the whole index; poll it sparingly.
func (s *Simulation) FreeFaces() (squares, hexagons int) {
	buf := make([]occupancy.Neighbor, 0, lattice.NeighborCount)
	s.index.Each(func(_ occupancy.CellID, pos mgl32.Vec3) bool {
		buf = s.index.AppendNeighbors(buf[:0], pos, occupancy.UnoccupiedOnly)
		for _, n := range buf {
			if !s.shape.Contains(n.Position) {
				continue
			}
			if n.Face == lattice.FaceSquare {
				squares++
			} else {
				hexagons++
			}
		}
		return true
	})
	return squares, hexagons
}
