// Package occupancy stores which lattice cells are filled. Two strategies
// share one contract: DenseGrid for bounded simulations with known extents
// and SpatialHash for unbounded growth.
package occupancy

import (
	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/stat"
)

// CellID identifies a cell. IDs are assigned by the owner in insertion order.
type CellID uint32

// NoCell marks an empty slot.
const NoCell = ^CellID(0)

// CellData pairs a cell id with its snapped position.
type CellData struct {
	ID       CellID
	Position mgl32.Vec3
}

// Neighbor is one of the 14 cells around a position.
type Neighbor struct {
	Position mgl32.Vec3
	Coord    lattice.Coord
	Face     lattice.FaceKind
}

// Filter selects which neighbors a query returns.
type Filter uint8

const (
	// AllNeighbors returns every representable neighbor.
	AllNeighbors Filter = iota
	// UnoccupiedOnly returns the neighbors that are free.
	UnoccupiedOnly
	// OccupiedOnly returns the neighbors that are filled.
	OccupiedOnly
)

// Index is the occupancy contract shared by both strategies.
type Index interface {
	Lattice() lattice.Lattice

	// Insert stores id at the snapped position. It reports false, leaving the
	// index untouched, when the position is already filled or not representable.
	Insert(pos mgl32.Vec3, id CellID) bool
	IsOccupied(pos mgl32.Vec3) bool
	FindCellID(pos mgl32.Vec3) (CellID, bool)

	Neighbors(pos mgl32.Vec3, filter Filter) []Neighbor
	AppendNeighbors(dst []Neighbor, pos mgl32.Vec3, filter Filter) []Neighbor
	AvailableNeighbors(pos mgl32.Vec3) []Neighbor
	OccupiedNeighbors(pos mgl32.Vec3) []CellData
	CountOccupiedNeighbors(pos mgl32.Vec3) int

	PositionForID(id CellID) (mgl32.Vec3, bool)
	// Each visits cells in insertion order until fn returns false.
	Each(fn func(id CellID, pos mgl32.Vec3) bool)
	Len() int
	// Reserve grows backing storage so that n more cells insert without reallocation.
	Reserve(n int)
	Clear()
	Stats() LoadStats
}

// LoadStats describes how evenly cells spread over buckets.
type LoadStats struct {
	Cells           int
	Buckets         int
	NonEmptyBuckets int
	MaxBucket       int
	AvgBucket       float64
	StdDevBucket    float64
	LoadFactor      float64
}

func loadStats(cells, buckets int, sizes []float64) LoadStats {
	ls := LoadStats{Cells: cells, Buckets: buckets, NonEmptyBuckets: len(sizes)}
	if buckets > 0 {
		ls.LoadFactor = float64(cells) / float64(buckets)
	}
	if len(sizes) == 0 {
		return ls
	}
	for _, s := range sizes {
		if int(s) > ls.MaxBucket {
			ls.MaxBucket = int(s)
		}
	}
	ls.AvgBucket = stat.Mean(sizes, nil)
	if len(sizes) > 1 {
		ls.StdDevBucket = stat.StdDev(sizes, nil)
	}
	return ls
}

// coordStore is what each strategy provides to the shared neighbor queries.
type coordStore interface {
	lookup(c lattice.Coord) (CellID, bool)
	valid(c lattice.Coord) bool
}

func appendNeighbors(l lattice.Lattice, s coordStore, dst []Neighbor, pos mgl32.Vec3, filter Filter) []Neighbor {
	for _, n := range lattice.Neighbors(l.ToCoord(pos)) {
		if !s.valid(n.D) {
			continue
		}
		if filter != AllNeighbors {
			_, occupied := s.lookup(n.D)
			if occupied != (filter == OccupiedOnly) {
				continue
			}
		}
		dst = append(dst, Neighbor{Position: l.ToPosition(n.D), Coord: n.D, Face: n.Face})
	}
	return dst
}

func occupiedNeighbors(l lattice.Lattice, s coordStore, pos mgl32.Vec3) []CellData {
	out := make([]CellData, 0, lattice.NeighborCount)
	for _, n := range lattice.Neighbors(l.ToCoord(pos)) {
		if !s.valid(n.D) {
			continue
		}
		if id, ok := s.lookup(n.D); ok {
			out = append(out, CellData{ID: id, Position: l.ToPosition(n.D)})
		}
	}
	return out
}

func countOccupied(l lattice.Lattice, s coordStore, pos mgl32.Vec3) int {
	count := 0
	for _, n := range lattice.Neighbors(l.ToCoord(pos)) {
		if !s.valid(n.D) {
			continue
		}
		if _, ok := s.lookup(n.D); ok {
			count++
		}
	}
	return count
}

// reverseMap keeps id -> position and the insertion order.
type reverseMap struct {
	byID  []mgl32.Vec3
	set   []bool
	order []CellID
}

func (r *reverseMap) put(id CellID, pos mgl32.Vec3) {
	i := int(id)
	if i >= len(r.byID) {
		grow := i + 1 - len(r.byID)
		r.byID = append(r.byID, make([]mgl32.Vec3, grow)...)
		r.set = append(r.set, make([]bool, grow)...)
	}
	r.byID[i] = pos
	r.set[i] = true
	r.order = append(r.order, id)
}

func (r *reverseMap) get(id CellID) (mgl32.Vec3, bool) {
	i := int(id)
	if id == NoCell || i >= len(r.byID) || !r.set[i] {
		return mgl32.Vec3{}, false
	}
	return r.byID[i], true
}

func (r *reverseMap) each(fn func(id CellID, pos mgl32.Vec3) bool) {
	for _, id := range r.order {
		if !fn(id, r.byID[id]) {
			return
		}
	}
}

func (r *reverseMap) reserve(n int) {
	if need := len(r.order) + n; need > cap(r.order) {
		order := make([]CellID, len(r.order), need)
		copy(order, r.order)
		r.order = order
	}
	if need := len(r.byID) + n; need > cap(r.byID) {
		byID := make([]mgl32.Vec3, len(r.byID), need)
		copy(byID, r.byID)
		r.byID = byID
		set := make([]bool, len(r.set), need)
		copy(set, r.set)
		r.set = set
	}
}

func (r *reverseMap) clear() {
	r.byID = r.byID[:0]
	r.set = r.set[:0]
	r.order = r.order[:0]
}
