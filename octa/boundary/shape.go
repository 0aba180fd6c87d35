// Package boundary defines the region growth is confined to. Shapes are a
// tagged variant resolved by switch so the hot containment check avoids
// interface dispatch.
package boundary

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind selects the shape family.
type Kind uint8

const (
	KindBox Kind = iota
	KindCylinder
	KindPrism
)

var ErrUnknownShape = errors.New("unknown boundary shape")

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindCylinder:
		return "cylinder"
	case KindPrism:
		return "prism"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind maps a config name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "box", "":
		return KindBox, nil
	case "cylinder":
		return KindCylinder, nil
	case "prism":
		return KindPrism, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}

const (
	// ResizeStep is how far a box edge moves per control tick.
	ResizeStep = 10
	// MinExtent clamps box width and depth when shrinking.
	MinExtent = 50
	// CylinderSegments is the ring resolution of a cylinder wireframe.
	CylinderSegments = 32
)

// Shape is a boundary volume. Height always runs along Y; the footprint lies
// in the XZ plane.
type Shape struct {
	Kind   Kind
	Center mgl32.Vec3

	// Box extents along X, Z and Y.
	Width, Depth, Height float32
	// Cylinder radius in the XZ plane.
	Radius float32
	// Prism footprint, XZ offsets from Center stored as (x, z).
	Footprint []mgl32.Vec2

	locked bool
}

// NewBox returns an axis-aligned box.
func NewBox(center mgl32.Vec3, width, depth, height float32) *Shape {
	return &Shape{Kind: KindBox, Center: center, Width: width, Depth: depth, Height: height}
}

// NewCylinder returns a Y-aligned cylinder.
func NewCylinder(center mgl32.Vec3, radius, height float32) *Shape {
	return &Shape{Kind: KindCylinder, Center: center, Radius: radius, Height: height}
}

// NewPrism returns a polygonal prism. The footprint is copied.
func NewPrism(center mgl32.Vec3, footprint []mgl32.Vec2, height float32) *Shape {
	fp := make([]mgl32.Vec2, len(footprint))
	copy(fp, footprint)
	return &Shape{Kind: KindPrism, Center: center, Footprint: fp, Height: height}
}

// Contains reports whether p lies inside the shape. Bounds are inclusive.
func (s *Shape) Contains(p mgl32.Vec3) bool {
	d := p.Sub(s.Center)
	if math.Abs(float64(d[1])) > float64(s.Height)/2 {
		return false
	}
	switch s.Kind {
	case KindBox:
		return math.Abs(float64(d[0])) <= float64(s.Width)/2 &&
			math.Abs(float64(d[2])) <= float64(s.Depth)/2
	case KindCylinder:
		return d[0]*d[0]+d[2]*d[2] <= s.Radius*s.Radius
	case KindPrism:
		return pointInPolygon(s.Footprint, d[0], d[2])
	}
	return false
}

// pointInPolygon casts a ray along +X and counts edge crossings.
func pointInPolygon(poly []mgl32.Vec2, x, z float32) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, zi := poly[i][0], poly[i][1]
		xj, zj := poly[j][0], poly[j][1]
		if (zi > z) != (zj > z) {
			cross := (xj-xi)*(z-zi)/(zj-zi) + xi
			if x < cross {
				inside = !inside
			}
		}
	}
	return inside
}

// Bounds returns the axis-aligned box enclosing the shape.
func (s *Shape) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	var half mgl32.Vec3
	switch s.Kind {
	case KindBox:
		half = mgl32.Vec3{s.Width / 2, s.Height / 2, s.Depth / 2}
	case KindCylinder:
		half = mgl32.Vec3{s.Radius, s.Height / 2, s.Radius}
	case KindPrism:
		var minX, maxX, minZ, maxZ float32
		for i, v := range s.Footprint {
			if i == 0 || v[0] < minX {
				minX = v[0]
			}
			if i == 0 || v[0] > maxX {
				maxX = v[0]
			}
			if i == 0 || v[1] < minZ {
				minZ = v[1]
			}
			if i == 0 || v[1] > maxZ {
				maxZ = v[1]
			}
		}
		lo := s.Center.Add(mgl32.Vec3{minX, -s.Height / 2, minZ})
		hi := s.Center.Add(mgl32.Vec3{maxX, s.Height / 2, maxZ})
		return lo, hi
	}
	return s.Center.Sub(half), s.Center.Add(half)
}

// Volume returns the enclosed volume in world units.
func (s *Shape) Volume() float64 {
	h := float64(s.Height)
	switch s.Kind {
	case KindBox:
		return float64(s.Width) * float64(s.Depth) * h
	case KindCylinder:
		return math.Pi * float64(s.Radius) * float64(s.Radius) * h
	case KindPrism:
		return polygonArea(s.Footprint) * h
	}
	return 0
}

func polygonArea(poly []mgl32.Vec2) float64 {
	var sum float64
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		sum += float64(poly[j][0])*float64(poly[i][1]) - float64(poly[i][0])*float64(poly[j][1])
	}
	return math.Abs(sum) / 2
}

// Lock freezes the geometry. It cannot be undone; Reset builds a new shape.
func (s *Shape) Lock() { s.locked = true }

// Locked reports whether the geometry is frozen.
func (s *Shape) Locked() bool { return s.locked }

// ResizeInput carries the held resize controls for one tick.
type ResizeInput struct {
	Right, Left, Up, Down bool
}

// Resize grows or shrinks a box by ResizeStep per held control. Right/Left
// change the width, Up/Down the depth. Locked shapes and other kinds are
// left alone and false is returned.
func (s *Shape) Resize(in ResizeInput) bool {
	if s.locked || s.Kind != KindBox {
		return false
	}
	if in.Right {
		s.Width += ResizeStep
	}
	if in.Left {
		s.Width = max(MinExtent, s.Width-ResizeStep)
	}
	if in.Up {
		s.Depth += ResizeStep
	}
	if in.Down {
		s.Depth = max(MinExtent, s.Depth-ResizeStep)
	}
	return in.Right || in.Left || in.Up || in.Down
}

// SetDimensions replaces width, depth and height before the shape is locked.
// For cylinders width sets the diameter; prisms scale their footprint so its
// bounding width matches. Non-positive values keep the current dimension.
func (s *Shape) SetDimensions(width, depth, height float32) bool {
	if s.locked {
		return false
	}
	if height > 0 {
		s.Height = height
	}
	switch s.Kind {
	case KindBox:
		if width > 0 {
			s.Width = width
		}
		if depth > 0 {
			s.Depth = depth
		}
	case KindCylinder:
		if width > 0 {
			s.Radius = width / 2
		}
	case KindPrism:
		lo, hi := s.Bounds()
		if cur := hi[0] - lo[0]; width > 0 && cur > 0 {
			k := width / cur
			for i := range s.Footprint {
				s.Footprint[i] = s.Footprint[i].Mul(k)
			}
		}
	}
	return true
}

// Clone returns an unlocked copy.
func (s *Shape) Clone() *Shape {
	c := *s
	c.Footprint = append([]mgl32.Vec2(nil), s.Footprint...)
	c.locked = false
	return &c
}

func (s *Shape) String() string {
	switch s.Kind {
	case KindBox:
		return fmt.Sprintf("box %.0fx%.0fx%.0f", s.Width, s.Depth, s.Height)
	case KindCylinder:
		return fmt.Sprintf("cylinder r=%.0f h=%.0f", s.Radius, s.Height)
	case KindPrism:
		return fmt.Sprintf("prism %d sides h=%.0f", len(s.Footprint), s.Height)
	}
	return s.Kind.String()
}
