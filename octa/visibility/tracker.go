// Package visibility tracks how many of each cell's 14 neighbors are filled.
// A cell surrounded on every face is interior and is not drawn.
package visibility

import (
	"runtime"

	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/gekko3d/octagrow/octa/occupancy"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// Classes is the number of exposure classes, 0 through 14.
const Classes = lattice.NeighborCount + 1

// DefaultChunkSize bounds the positions handled per incremental batch.
const DefaultChunkSize = 1000

const unclassified = 0xFF

// Tracker stores an exposure count per cell id. It reads the index but never
// writes it, and is owned by the main thread.
type Tracker struct {
	index     occupancy.Index
	chunkSize int
	workers   int

	counts     []uint8
	hist       [Classes]int
	classified int

	affected map[occupancy.CellID]struct{}
}

// NewTracker returns a tracker over index. chunkSize and workers fall back to
// DefaultChunkSize and GOMAXPROCS when not positive.
func NewTracker(index occupancy.Index, chunkSize, workers int) *Tracker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Tracker{
		index:     index,
		chunkSize: chunkSize,
		workers:   workers,
		affected:  make(map[occupancy.CellID]struct{}, chunkSize*lattice.NeighborCount),
	}
}

func (t *Tracker) grow(id occupancy.CellID) {
	need := int(id) + 1
	if need <= len(t.counts) {
		return
	}
	if need > cap(t.counts) {
		counts := make([]uint8, len(t.counts), max(need, 2*cap(t.counts)))
		copy(counts, t.counts)
		t.counts = counts
	}
	for len(t.counts) < need {
		t.counts = append(t.counts, unclassified)
	}
}

func (t *Tracker) set(id occupancy.CellID, n int) {
	t.grow(id)
	old := t.counts[id]
	if old == unclassified {
		t.classified++
	} else {
		t.hist[old]--
	}
	t.counts[id] = uint8(n)
	t.hist[n]++
}

// Classify recounts the occupied neighbors of id and stores the result.
// It reports false for an id the index does not know.
func (t *Tracker) Classify(id occupancy.CellID) (int, bool) {
	pos, ok := t.index.PositionForID(id)
	if !ok {
		return 0, false
	}
	n := t.index.CountOccupiedNeighbors(pos)
	t.set(id, n)
	return n, true
}

// Exposure returns the stored count for id, or -1 when id is unclassified.
func (t *Tracker) Exposure(id occupancy.CellID) int {
	if int(id) >= len(t.counts) || t.counts[id] == unclassified {
		return -1
	}
	return int(t.counts[id])
}

// Visible reports whether id is classified and has at least one free face.
func (t *Tracker) Visible(id occupancy.CellID) bool {
	n := t.Exposure(id)
	return n >= 0 && n < lattice.NeighborCount
}

// UpdateAll recounts every cell in the index. Counting runs in parallel
// chunks; each chunk writes only its own ids.
func (t *Tracker) UpdateAll() {
	ids := make([]occupancy.CellID, 0, t.index.Len())
	var top occupancy.CellID
	t.index.Each(func(id occupancy.CellID, _ mgl32.Vec3) bool {
		ids = append(ids, id)
		top = max(top, id)
		return true
	})
	t.Reset()
	if len(ids) == 0 {
		return
	}
	t.grow(top)

	var g errgroup.Group
	g.SetLimit(t.workers)
	for lo := 0; lo < len(ids); lo += t.chunkSize {
		chunk := ids[lo:min(lo+t.chunkSize, len(ids))]
		g.Go(func() error {
			for _, id := range chunk {
				pos, _ := t.index.PositionForID(id)
				t.counts[id] = uint8(t.index.CountOccupiedNeighbors(pos))
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, id := range ids {
		t.hist[t.counts[id]]++
	}
	t.classified = len(ids)
}

// UpdateForNewCells recounts the cells at positions and every occupied
// neighbor of them. Positions are processed in chunks so the affected set
// stays bounded. The result equals what UpdateAll would produce for those cells.
func (t *Tracker) UpdateForNewCells(positions []mgl32.Vec3) {
	for lo := 0; lo < len(positions); lo += t.chunkSize {
		clear(t.affected)
		for _, p := range positions[lo:min(lo+t.chunkSize, len(positions))] {
			id, ok := t.index.FindCellID(p)
			if !ok {
				continue
			}
			t.affected[id] = struct{}{}
			for _, n := range t.index.OccupiedNeighbors(p) {
				t.affected[n.ID] = struct{}{}
			}
		}
		for id := range t.affected {
			t.Classify(id)
		}
	}
}

// Histogram returns the number of cells per exposure class.
func (t *Tracker) Histogram() [Classes]int { return t.hist }

// VisibleCount is the number of classified cells with a free face.
func (t *Tracker) VisibleCount() int {
	return t.classified - t.hist[lattice.NeighborCount]
}

// Classified is the number of cells with a stored count.
func (t *Tracker) Classified() int { return t.classified }

// Reset forgets every count.
func (t *Tracker) Reset() {
	t.counts = t.counts[:0]
	t.hist = [Classes]int{}
	t.classified = 0
	clear(t.affected)
}
