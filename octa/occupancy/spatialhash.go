package occupancy

import (
	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultBuckets keeps the average bucket near one entry at a million cells.
const DefaultBuckets = 1 << 20

type hashEntry struct {
	pos mgl32.Vec3
	id  CellID
}

// SpatialHash is an open hash over lattice coordinates with a fixed number
// of buckets. Memory grows with the number of occupied cells, not with the
// volume they span.
type SpatialHash struct {
	lat     lattice.Lattice
	buckets [][]hashEntry
	mask    uint64
	epsilon float32
	rev     reverseMap
	count   int
}

// NewSpatialHash allocates the bucket table. The bucket count is rounded up
// to a power of two.
func NewSpatialHash(lat lattice.Lattice, buckets int) *SpatialHash {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	n := 1
	for n < buckets {
		n <<= 1
	}
	return &SpatialHash{
		lat:     lat,
		buckets: make([][]hashEntry, n),
		mask:    uint64(n - 1),
		// Snapped neighbors are at least a hexagon distance apart, so half of
		// it separates distinct cells while absorbing float jitter.
		epsilon: lat.Hexagon() * 0.5,
	}
}

// hashKey mixes the coordinate with large primes.
func hashKey(c lattice.Coord) uint64 {
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(c.X*p1 ^ c.Y*p2 ^ c.Z*p3)
}

func (h *SpatialHash) bucketOf(c lattice.Coord) int {
	return int(hashKey(c) & h.mask)
}

func (h *SpatialHash) find(c lattice.Coord) (CellID, bool) {
	pos := h.lat.ToPosition(c)
	eps2 := h.epsilon * h.epsilon
	for _, e := range h.buckets[h.bucketOf(c)] {
		d := e.pos.Sub(pos)
		if d.Dot(d) < eps2 {
			return e.id, true
		}
	}
	return NoCell, false
}

func (h *SpatialHash) valid(lattice.Coord) bool { return true }

func (h *SpatialHash) lookup(c lattice.Coord) (CellID, bool) { return h.find(c) }

func (h *SpatialHash) Lattice() lattice.Lattice { return h.lat }

func (h *SpatialHash) Insert(pos mgl32.Vec3, id CellID) bool {
	if id == NoCell {
		return false
	}
	c := h.lat.ToCoord(pos)
	if _, ok := h.find(c); ok {
		return false
	}
	snapped := h.lat.ToPosition(c)
	b := h.bucketOf(c)
	h.buckets[b] = append(h.buckets[b], hashEntry{pos: snapped, id: id})
	h.rev.put(id, snapped)
	h.count++
	return true
}

func (h *SpatialHash) IsOccupied(pos mgl32.Vec3) bool {
	_, ok := h.find(h.lat.ToCoord(pos))
	return ok
}

func (h *SpatialHash) FindCellID(pos mgl32.Vec3) (CellID, bool) {
	return h.find(h.lat.ToCoord(pos))
}

func (h *SpatialHash) Neighbors(pos mgl32.Vec3, filter Filter) []Neighbor {
	return appendNeighbors(h.lat, h, make([]Neighbor, 0, lattice.NeighborCount), pos, filter)
}

func (h *SpatialHash) AppendNeighbors(dst []Neighbor, pos mgl32.Vec3, filter Filter) []Neighbor {
	return appendNeighbors(h.lat, h, dst, pos, filter)
}

func (h *SpatialHash) AvailableNeighbors(pos mgl32.Vec3) []Neighbor {
	return h.Neighbors(pos, UnoccupiedOnly)
}

func (h *SpatialHash) OccupiedNeighbors(pos mgl32.Vec3) []CellData {
	return occupiedNeighbors(h.lat, h, pos)
}

func (h *SpatialHash) CountOccupiedNeighbors(pos mgl32.Vec3) int {
	return countOccupied(h.lat, h, pos)
}

func (h *SpatialHash) PositionForID(id CellID) (mgl32.Vec3, bool) { return h.rev.get(id) }

func (h *SpatialHash) Each(fn func(id CellID, pos mgl32.Vec3) bool) { h.rev.each(fn) }

func (h *SpatialHash) Len() int { return h.count }

func (h *SpatialHash) Reserve(n int) {
	if n > 0 {
		h.rev.reserve(n)
	}
}

func (h *SpatialHash) Clear() {
	for i := range h.buckets {
		h.buckets[i] = h.buckets[i][:0]
	}
	h.rev.clear()
	h.count = 0
}

// Stats reports bucket occupancy for capacity tuning. It walks every bucket.
func (h *SpatialHash) Stats() LoadStats {
	sizes := make([]float64, 0, min(h.count, len(h.buckets)))
	for _, b := range h.buckets {
		if len(b) > 0 {
			sizes = append(sizes, float64(len(b)))
		}
	}
	return loadStats(h.count, len(h.buckets), sizes)
}
