package boundary

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Segment is one wireframe line in world space.
type Segment struct {
	A, B mgl32.Vec3
}

// Wireframe describes the shape outline for an external renderer.
func (s *Shape) Wireframe() []Segment {
	switch s.Kind {
	case KindBox:
		hw, hh, hd := s.Width/2, s.Height/2, s.Depth/2
		footprint := []mgl32.Vec2{{-hw, -hd}, {hw, -hd}, {hw, hd}, {-hw, hd}}
		return s.extrude(footprint, hh, true)
	case KindCylinder:
		ring := make([]mgl32.Vec2, CylinderSegments)
		for i := range ring {
			a := 2 * math.Pi * float64(i) / CylinderSegments
			ring[i] = mgl32.Vec2{s.Radius * float32(math.Cos(a)), s.Radius * float32(math.Sin(a))}
		}
		segs := s.extrude(ring, s.Height/2, false)
		// Four verticals are enough to read the silhouette.
		for i := 0; i < CylinderSegments; i += CylinderSegments / 4 {
			segs = append(segs, s.vertical(ring[i], s.Height/2))
		}
		return segs
	case KindPrism:
		return s.extrude(s.Footprint, s.Height/2, true)
	}
	return nil
}

func (s *Shape) extrude(poly []mgl32.Vec2, hh float32, verticals bool) []Segment {
	n := len(poly)
	if n < 2 {
		return nil
	}
	segs := make([]Segment, 0, 3*n)
	for i := range poly {
		a, b := poly[i], poly[(i+1)%n]
		segs = append(segs,
			Segment{s.at(a, -hh), s.at(b, -hh)},
			Segment{s.at(a, hh), s.at(b, hh)},
		)
		if verticals {
			segs = append(segs, s.vertical(a, hh))
		}
	}
	return segs
}

func (s *Shape) vertical(v mgl32.Vec2, hh float32) Segment {
	return Segment{s.at(v, -hh), s.at(v, hh)}
}

func (s *Shape) at(v mgl32.Vec2, dy float32) mgl32.Vec3 {
	return s.Center.Add(mgl32.Vec3{v[0], dy, v[1]})
}
