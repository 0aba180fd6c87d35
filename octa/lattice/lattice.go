// Package lattice addresses the body-centered-cubic lattice that truncated
// octahedra tile. Positions are world-space mgl32 vectors; coordinates are
// integer triples where Z is the layer axis and odd layers belong to the
// sub-lattice shifted by half a cell along X and Y.
package lattice

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSquareDistance is the spacing between octahedra that share a square face.
const DefaultSquareDistance = 2.0 * 2.82842712475

// NeighborCount is the number of faces of a truncated octahedron (6 squares, 8 hexagons).
const NeighborCount = 14

// FaceKind tells which face two neighboring cells share.
type FaceKind uint8

const (
	FaceSquare FaceKind = iota
	FaceHexagon
)

func (f FaceKind) String() string {
	switch f {
	case FaceSquare:
		return "square"
	case FaceHexagon:
		return "hexagon"
	}
	return "unknown"
}

// Coord is a discrete lattice address.
type Coord struct {
	X, Y, Z int
}

// Add returns the component-wise sum.
func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// OddLayer reports whether c lives on the offset sub-lattice.
func (c Coord) OddLayer() bool { return c.Z&1 != 0 }

// Offset is a neighbor displacement in coordinate space together with the shared face.
type Offset struct {
	D    Coord
	Face FaceKind
}

var squareOffsets = [6]Offset{
	{Coord{-1, 0, 0}, FaceSquare},
	{Coord{1, 0, 0}, FaceSquare},
	{Coord{0, -1, 0}, FaceSquare},
	{Coord{0, 1, 0}, FaceSquare},
	{Coord{0, 0, -2}, FaceSquare},
	{Coord{0, 0, 2}, FaceSquare},
}

// Going from an even layer to an odd one the in-plane index stays or drops by
// one; going from an odd layer it stays or rises by one.
var hexOffsetsEven = [8]Offset{
	{Coord{-1, -1, 1}, FaceHexagon},
	{Coord{0, -1, 1}, FaceHexagon},
	{Coord{0, 0, 1}, FaceHexagon},
	{Coord{-1, 0, 1}, FaceHexagon},
	{Coord{-1, -1, -1}, FaceHexagon},
	{Coord{0, -1, -1}, FaceHexagon},
	{Coord{0, 0, -1}, FaceHexagon},
	{Coord{-1, 0, -1}, FaceHexagon},
}

var hexOffsetsOdd = [8]Offset{
	{Coord{0, 0, 1}, FaceHexagon},
	{Coord{1, 0, 1}, FaceHexagon},
	{Coord{1, 1, 1}, FaceHexagon},
	{Coord{0, 1, 1}, FaceHexagon},
	{Coord{0, 0, -1}, FaceHexagon},
	{Coord{1, 0, -1}, FaceHexagon},
	{Coord{1, 1, -1}, FaceHexagon},
	{Coord{0, 1, -1}, FaceHexagon},
}

// SquareOffsets returns the 6 square-face neighbor displacements.
func SquareOffsets() [6]Offset { return squareOffsets }

// HexagonOffsets returns the 8 hexagon-face displacements for a cell at c.
// They depend on the layer parity of c.
func HexagonOffsets(c Coord) [8]Offset {
	if c.OddLayer() {
		return hexOffsetsOdd
	}
	return hexOffsetsEven
}

// Neighbors returns the 14 neighbor coordinates of c, squares first.
func Neighbors(c Coord) [NeighborCount]Offset {
	var out [NeighborCount]Offset
	for i, o := range squareOffsets {
		out[i] = Offset{c.Add(o.D), o.Face}
	}
	for i, o := range HexagonOffsets(c) {
		out[6+i] = Offset{c.Add(o.D), o.Face}
	}
	return out
}

// Lattice converts between world space and lattice coordinates for a given pitch.
type Lattice struct {
	Square float32
}

// New returns a lattice with the given square-face distance. Non-positive
// values fall back to DefaultSquareDistance.
func New(square float32) Lattice {
	if square <= 0 || math.IsNaN(float64(square)) {
		square = DefaultSquareDistance
	}
	return Lattice{Square: square}
}

// Hexagon is the distance between cells sharing a hexagonal face.
func (l Lattice) Hexagon() float32 {
	return l.Square * float32(math.Sqrt(3)/2)
}

// LayerStep is the distance between adjacent layers along Z.
func (l Lattice) LayerStep() float32 { return l.Square / 2 }

// CellVolume is the volume of one truncated octahedron.
func (l Lattice) CellVolume() float64 {
	s := float64(l.Square)
	return s * s * s / 2
}

// ToPosition maps a coordinate to its world-space center.
func (l Lattice) ToPosition(c Coord) mgl32.Vec3 {
	s := float64(l.Square)
	h := s / 2
	x := float64(c.X) * s
	y := float64(c.Y) * s
	z := float64(c.Z) * h
	if c.OddLayer() {
		x += h
		y += h
	}
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

// ToCoord returns the coordinate of the lattice point nearest to p.
// Both sub-lattices are simple cubic with spacing Square, so the nearest
// point of each is found by rounding; the closer of the two wins and ties
// go to the even layer.
func (l Lattice) ToCoord(p mgl32.Vec3) Coord {
	s := float64(l.Square)
	h := s / 2
	px, py, pz := float64(p[0]), float64(p[1]), float64(p[2])

	ex := math.Round(px / s)
	ey := math.Round(py / s)
	ez := math.Round(pz / s)
	de := sq(px-ex*s) + sq(py-ey*s) + sq(pz-ez*s)

	ox := math.Round((px - h) / s)
	oy := math.Round((py - h) / s)
	oz := math.Round((pz - h) / s)
	do := sq(px-ox*s-h) + sq(py-oy*s-h) + sq(pz-oz*s-h)

	if do < de {
		return Coord{int(ox), int(oy), 2*int(oz) + 1}
	}
	return Coord{int(ex), int(ey), 2 * int(ez)}
}

// Snap projects p onto the nearest lattice point.
func (l Lattice) Snap(p mgl32.Vec3) mgl32.Vec3 {
	return l.ToPosition(l.ToCoord(p))
}

// NeighborPositions returns the world positions of the 14 neighbors of the cell containing p.
func (l Lattice) NeighborPositions(p mgl32.Vec3) [NeighborCount]mgl32.Vec3 {
	var out [NeighborCount]mgl32.Vec3
	for i, n := range Neighbors(l.ToCoord(p)) {
		out[i] = l.ToPosition(n.D)
	}
	return out
}

// AreNeighbors reports whether a and b snap to face-sharing cells, and which face.
func (l Lattice) AreNeighbors(a, b mgl32.Vec3) (FaceKind, bool) {
	cb := l.ToCoord(b)
	for _, n := range Neighbors(l.ToCoord(a)) {
		if n.D == cb {
			return n.Face, true
		}
	}
	return 0, false
}

func sq(v float64) float64 { return v * v }
