package boundary

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxContainsInclusive(t *testing.T) {
	b := NewBox(mgl32.Vec3{10, 0, 0}, 20, 10, 4)

	assert.True(t, b.Contains(mgl32.Vec3{10, 0, 0}))
	assert.True(t, b.Contains(mgl32.Vec3{20, 2, 5}), "corner is inside")
	assert.True(t, b.Contains(mgl32.Vec3{0, -2, -5}))
	assert.False(t, b.Contains(mgl32.Vec3{20.01, 0, 0}))
	assert.False(t, b.Contains(mgl32.Vec3{10, 2.01, 0}))
	assert.False(t, b.Contains(mgl32.Vec3{10, 0, -5.01}))
}

func TestCylinderContains(t *testing.T) {
	c := NewCylinder(mgl32.Vec3{}, 5, 10)

	assert.True(t, c.Contains(mgl32.Vec3{3, 4.9, 4}))
	assert.True(t, c.Contains(mgl32.Vec3{0, -5, -5}))
	assert.False(t, c.Contains(mgl32.Vec3{3.6, 0, 3.6}))
	assert.False(t, c.Contains(mgl32.Vec3{0, 5.1, 0}))
}

func TestPrismRayCasting(t *testing.T) {
	// L-shaped footprint: the notch at (+x, +z) is outside.
	footprint := []mgl32.Vec2{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}}
	p := NewPrism(mgl32.Vec3{0, 0, 0}, footprint, 6)

	assert.True(t, p.Contains(mgl32.Vec3{2, 0, 2}))
	assert.True(t, p.Contains(mgl32.Vec3{8, 1, 2}))
	assert.True(t, p.Contains(mgl32.Vec3{2, -1, 8}))
	assert.False(t, p.Contains(mgl32.Vec3{8, 0, 8}), "notch")
	assert.False(t, p.Contains(mgl32.Vec3{-1, 0, 2}))
	assert.False(t, p.Contains(mgl32.Vec3{2, 3.5, 2}), "above")

	assert.InDelta(t, 75.0*6, p.Volume(), 1e-6)

	lo, hi := p.Bounds()
	assert.Equal(t, mgl32.Vec3{0, -3, 0}, lo)
	assert.Equal(t, mgl32.Vec3{10, 3, 10}, hi)

	assert.False(t, NewPrism(mgl32.Vec3{}, footprint[:2], 6).Contains(mgl32.Vec3{}))
}

func TestBoundsEncloseContainedPoints(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	for i := 0; i < 30; i++ {
		s := Random(rng, mgl32.Vec3{100, 20, -40})
		lo, hi := s.Bounds()
		for j := 0; j < 300; j++ {
			p := mgl32.Vec3{
				lo[0] - 10 + float32(rng.Float64())*(hi[0]-lo[0]+20),
				lo[1] - 10 + float32(rng.Float64())*(hi[1]-lo[1]+20),
				lo[2] - 10 + float32(rng.Float64())*(hi[2]-lo[2]+20),
			}
			if s.Contains(p) {
				require.True(t, p[0] >= lo[0] && p[0] <= hi[0] &&
					p[1] >= lo[1] && p[1] <= hi[1] &&
					p[2] >= lo[2] && p[2] <= hi[2], "%s contains %v outside its bounds", s, p)
			}
		}
	}
}

func TestRandomRanges(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 1))
	seen := map[Kind]bool{}
	for i := 0; i < 200; i++ {
		s := Random(rng, mgl32.Vec3{})
		seen[s.Kind] = true
		assert.GreaterOrEqual(t, s.Height, float32(RandomHeightMin))
		assert.LessOrEqual(t, s.Height, float32(RandomHeightMax))
		switch s.Kind {
		case KindBox:
			assert.True(t, s.Width >= RandomBoxMin && s.Width <= RandomBoxMax)
			assert.True(t, s.Depth >= RandomBoxMin && s.Depth <= RandomBoxMax)
		case KindCylinder:
			assert.True(t, s.Radius >= RandomRadiusMin && s.Radius <= RandomRadiusMax)
		case KindPrism:
			assert.True(t, len(s.Footprint) >= RandomPrismSidesLo && len(s.Footprint) <= RandomPrismSidesHi)
			assert.True(t, s.Contains(s.Center), "star-shaped prism must contain its center")
		}
		assert.False(t, s.Locked())
	}
	assert.Len(t, seen, 3)
}

func TestResizeAndLock(t *testing.T) {
	b := NewBox(mgl32.Vec3{}, 60, 100, 50)

	assert.True(t, b.Resize(ResizeInput{Right: true, Down: true}))
	assert.Equal(t, float32(70), b.Width)
	assert.Equal(t, float32(90), b.Depth)

	for i := 0; i < 5; i++ {
		b.Resize(ResizeInput{Left: true})
	}
	assert.Equal(t, float32(MinExtent), b.Width, "shrinking clamps at the minimum extent")
	assert.False(t, b.Resize(ResizeInput{}))

	assert.True(t, b.SetDimensions(300, 0, 80))
	assert.Equal(t, float32(300), b.Width)
	assert.Equal(t, float32(90), b.Depth)
	assert.Equal(t, float32(80), b.Height)

	b.Lock()
	assert.True(t, b.Locked())
	assert.False(t, b.Resize(ResizeInput{Right: true}))
	assert.False(t, b.SetDimensions(10, 10, 10))
	assert.Equal(t, float32(300), b.Width)

	clone := b.Clone()
	assert.False(t, clone.Locked())
	assert.Equal(t, b.Width, clone.Width)

	c := NewCylinder(mgl32.Vec3{}, 10, 10)
	assert.False(t, c.Resize(ResizeInput{Right: true}))
	assert.True(t, c.SetDimensions(50, 0, 0))
	assert.Equal(t, float32(25), c.Radius)
}

func TestWireframe(t *testing.T) {
	box := NewBox(mgl32.Vec3{1, 2, 3}, 4, 6, 8)
	segs := box.Wireframe()
	require.Len(t, segs, 12)
	for _, s := range segs {
		length := s.B.Sub(s.A).Len()
		assert.Contains(t, []float32{4, 6, 8}, length)
	}

	cyl := NewCylinder(mgl32.Vec3{}, 10, 4)
	segs = cyl.Wireframe()
	assert.Len(t, segs, 2*CylinderSegments+4)
	for _, s := range segs {
		r := math.Hypot(float64(s.A[0]), float64(s.A[2]))
		assert.InDelta(t, 10, r, 1e-3)
	}

	tri := NewPrism(mgl32.Vec3{}, []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}}, 2)
	assert.Len(t, tri.Wireframe(), 9)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("cylinder")
	require.NoError(t, err)
	assert.Equal(t, KindCylinder, k)

	_, err = ParseKind("sphere")
	assert.ErrorIs(t, err, ErrUnknownShape)
}
