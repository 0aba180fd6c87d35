package octagrow

import (
	"github.com/gekko3d/octagrow/octa/occupancy"
	"github.com/gekko3d/octagrow/octa/visibility"
	"github.com/go-gl/mathgl/mgl32"
)

// RenderSnapshot lists visible cells grouped by exposure class, one draw
// batch per class. Snapshots are immutable once returned.
type RenderSnapshot struct {
	Version uint64
	// Count is the total number of cells, visible or not.
	Count   int
	Visible int
	Classes [visibility.Classes][]mgl32.Vec3
}

// Snapshot returns the visible cells grouped by exposure class. The result is
// cached until the simulation changes, so calling it every frame is cheap.
func (s *Simulation) Snapshot() *RenderSnapshot {
	if snap := s.snapshot.Load(); snap != nil && snap.Version == s.version {
		return snap
	}

	hist := s.tracker.Histogram()
	snap := &RenderSnapshot{Version: s.version, Count: s.index.Len()}
	for class := range snap.Classes {
		if class < len(snap.Classes)-1 && hist[class] > 0 {
			snap.Classes[class] = make([]mgl32.Vec3, 0, hist[class])
		}
	}
	s.index.Each(func(id occupancy.CellID, pos mgl32.Vec3) bool {
		if s.tracker.Visible(id) {
			class := s.tracker.Exposure(id)
			snap.Classes[class] = append(snap.Classes[class], pos)
			snap.Visible++
		}
		return true
	})
	s.snapshot.Store(snap)
	return snap
}
