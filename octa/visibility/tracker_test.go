package visibility

import (
	"math/rand/v2"
	"testing"

	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/gekko3d/octagrow/octa/occupancy"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cluster struct {
	idx occupancy.Index
	lat lattice.Lattice
}

func newCluster() *cluster {
	lat := lattice.New(0)
	return &cluster{idx: occupancy.NewSpatialHash(lat, 1<<12), lat: lat}
}

func (c *cluster) add(p mgl32.Vec3) (mgl32.Vec3, bool) {
	p = c.lat.Snap(p)
	return p, c.idx.Insert(p, occupancy.CellID(c.idx.Len()))
}

// grow adds n random cells attached to the existing ones and returns the new positions.
func (c *cluster) grow(rng *rand.Rand, n int) []mgl32.Vec3 {
	var out []mgl32.Vec3
	for len(out) < n {
		id := occupancy.CellID(rng.IntN(c.idx.Len()))
		pos, _ := c.idx.PositionForID(id)
		free := c.idx.AvailableNeighbors(pos)
		if len(free) == 0 {
			continue
		}
		if p, ok := c.add(free[rng.IntN(len(free))].Position); ok {
			out = append(out, p)
		}
	}
	return out
}

func TestSaturatedCluster(t *testing.T) {
	c := newCluster()
	center, _ := c.add(mgl32.Vec3{})
	for _, p := range c.lat.NeighborPositions(center) {
		_, ok := c.add(p)
		require.True(t, ok)
	}

	tr := NewTracker(c.idx, 0, 0)
	tr.UpdateAll()

	id, ok := c.idx.FindCellID(center)
	require.True(t, ok)
	assert.Equal(t, 14, tr.Exposure(id))
	assert.False(t, tr.Visible(id))
	assert.Equal(t, 14, tr.VisibleCount())
	assert.Equal(t, 1, tr.Histogram()[14])
}

func TestIncrementalMatchesFull(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	c := newCluster()
	c.add(mgl32.Vec3{})

	inc := NewTracker(c.idx, 7, 0)
	inc.UpdateAll()
	for round := 0; round < 12; round++ {
		inc.UpdateForNewCells(c.grow(rng, 40))
	}

	full := NewTracker(c.idx, 0, 3)
	full.UpdateAll()

	require.Equal(t, c.idx.Len(), inc.Classified())
	c.idx.Each(func(id occupancy.CellID, pos mgl32.Vec3) bool {
		assert.Equal(t, full.Exposure(id), inc.Exposure(id), "cell %d at %v", id, pos)
		assert.Equal(t, len(c.idx.OccupiedNeighbors(pos)), inc.Exposure(id))
		return true
	})
	assert.Equal(t, full.Histogram(), inc.Histogram())
	assert.Equal(t, full.VisibleCount(), inc.VisibleCount())
}

func TestExposureIsMonotonic(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 1))
	c := newCluster()
	c.add(mgl32.Vec3{})
	c.grow(rng, 60)

	tr := NewTracker(c.idx, 0, 0)
	tr.UpdateAll()

	for i := 0; i < 30; i++ {
		before := make([]int, c.idx.Len())
		for id := range before {
			before[id] = tr.Exposure(occupancy.CellID(id))
		}

		added := c.grow(rng, 1)
		tr.UpdateForNewCells(added)

		for id, was := range before {
			pos, _ := c.idx.PositionForID(occupancy.CellID(id))
			_, adjacent := c.lat.AreNeighbors(pos, added[0])
			now := tr.Exposure(occupancy.CellID(id))
			if adjacent {
				assert.Equal(t, was+1, now)
			} else {
				assert.Equal(t, was, now)
			}
		}
	}
}

func TestUnknownCells(t *testing.T) {
	c := newCluster()
	tr := NewTracker(c.idx, 0, 0)

	_, ok := tr.Classify(5)
	assert.False(t, ok)
	assert.Equal(t, -1, tr.Exposure(5))
	assert.False(t, tr.Visible(5))

	tr.UpdateForNewCells([]mgl32.Vec3{{1, 2, 3}})
	assert.Zero(t, tr.Classified())

	c.add(mgl32.Vec3{})
	tr.UpdateAll()
	assert.Equal(t, 1, tr.VisibleCount())
	tr.Reset()
	assert.Zero(t, tr.VisibleCount())
	assert.Equal(t, -1, tr.Exposure(0))
}
