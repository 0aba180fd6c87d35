package occupancy

import (
	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/go-gl/mathgl/mgl32"
)

// DenseGrid is a flat 3D array over a bounded box of lattice coordinates.
// Lookups are true O(1); memory grows with the volume of the box.
type DenseGrid struct {
	lat    lattice.Lattice
	origin lattice.Coord
	size   [3]int
	// slots hold id+1 so the zero value means empty.
	slots []uint32
	rev   reverseMap
	count int
}

// NewDenseGrid covers coordinates in [origin, origin+size) along each axis.
func NewDenseGrid(lat lattice.Lattice, origin lattice.Coord, size [3]int) *DenseGrid {
	for i := range size {
		if size[i] <= 0 {
			size[i] = 1
		}
	}
	return &DenseGrid{
		lat:    lat,
		origin: origin,
		size:   size,
		slots:  make([]uint32, size[0]*size[1]*size[2]),
	}
}

// NewDenseGridForBounds sizes a grid to hold the world box [lo, hi] scaled
// about its center by margin, plus padding cells on every side.
func NewDenseGridForBounds(lat lattice.Lattice, lo, hi mgl32.Vec3, margin float32, padding int) *DenseGrid {
	if margin < 1 {
		margin = 1
	}
	if padding < 0 {
		padding = 0
	}
	center := lo.Add(hi).Mul(0.5)
	half := hi.Sub(lo).Mul(0.5 * margin)
	a := lat.ToCoord(center.Sub(half))
	b := lat.ToCoord(center.Add(half))

	// Layers are half as far apart as in-plane cells, so pad Z twice as much.
	origin := lattice.Coord{X: a.X - padding, Y: a.Y - padding, Z: a.Z - 2*padding}
	size := [3]int{
		b.X - a.X + 1 + 2*padding,
		b.Y - a.Y + 1 + 2*padding,
		b.Z - a.Z + 1 + 4*padding,
	}
	return NewDenseGrid(lat, origin, size)
}

func (g *DenseGrid) Lattice() lattice.Lattice { return g.lat }

// Extents returns the covered coordinate box.
func (g *DenseGrid) Extents() (lattice.Coord, [3]int) { return g.origin, g.size }

// flatIndex returns -1 for coordinates outside the grid.
func (g *DenseGrid) flatIndex(c lattice.Coord) int {
	x, y, z := c.X-g.origin.X, c.Y-g.origin.Y, c.Z-g.origin.Z
	nx, ny, nz := g.size[0], g.size[1], g.size[2]
	if x < 0 || x >= nx || y < 0 || y >= ny || z < 0 || z >= nz {
		return -1
	}
	return x + y*nx + z*nx*ny
}

func (g *DenseGrid) valid(c lattice.Coord) bool { return g.flatIndex(c) >= 0 }

func (g *DenseGrid) lookup(c lattice.Coord) (CellID, bool) {
	i := g.flatIndex(c)
	if i < 0 || g.slots[i] == 0 {
		return NoCell, false
	}
	return CellID(g.slots[i] - 1), true
}

func (g *DenseGrid) Insert(pos mgl32.Vec3, id CellID) bool {
	if id == NoCell {
		return false
	}
	c := g.lat.ToCoord(pos)
	i := g.flatIndex(c)
	if i < 0 || g.slots[i] != 0 {
		return false
	}
	g.slots[i] = uint32(id) + 1
	g.rev.put(id, g.lat.ToPosition(c))
	g.count++
	return true
}

func (g *DenseGrid) IsOccupied(pos mgl32.Vec3) bool {
	_, ok := g.lookup(g.lat.ToCoord(pos))
	return ok
}

func (g *DenseGrid) FindCellID(pos mgl32.Vec3) (CellID, bool) {
	return g.lookup(g.lat.ToCoord(pos))
}

func (g *DenseGrid) Neighbors(pos mgl32.Vec3, filter Filter) []Neighbor {
	return appendNeighbors(g.lat, g, make([]Neighbor, 0, lattice.NeighborCount), pos, filter)
}

func (g *DenseGrid) AppendNeighbors(dst []Neighbor, pos mgl32.Vec3, filter Filter) []Neighbor {
	return appendNeighbors(g.lat, g, dst, pos, filter)
}

func (g *DenseGrid) AvailableNeighbors(pos mgl32.Vec3) []Neighbor {
	return g.Neighbors(pos, UnoccupiedOnly)
}

func (g *DenseGrid) OccupiedNeighbors(pos mgl32.Vec3) []CellData {
	return occupiedNeighbors(g.lat, g, pos)
}

func (g *DenseGrid) CountOccupiedNeighbors(pos mgl32.Vec3) int {
	return countOccupied(g.lat, g, pos)
}

func (g *DenseGrid) PositionForID(id CellID) (mgl32.Vec3, bool) { return g.rev.get(id) }

func (g *DenseGrid) Each(fn func(id CellID, pos mgl32.Vec3) bool) { g.rev.each(fn) }

func (g *DenseGrid) Len() int { return g.count }

func (g *DenseGrid) Reserve(n int) {
	if n > 0 {
		g.rev.reserve(n)
	}
}

func (g *DenseGrid) Clear() {
	clear(g.slots)
	g.rev.clear()
	g.count = 0
}

// Stats treats every grid slot as a bucket of capacity one.
func (g *DenseGrid) Stats() LoadStats {
	ls := LoadStats{
		Cells:           g.count,
		Buckets:         len(g.slots),
		NonEmptyBuckets: g.count,
	}
	if g.count > 0 {
		ls.MaxBucket = 1
		ls.AvgBucket = 1
	}
	if len(g.slots) > 0 {
		ls.LoadFactor = float64(g.count) / float64(len(g.slots))
	}
	return ls
}
