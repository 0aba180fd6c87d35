package boundary

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Ranges used by Random, in world units.
const (
	RandomBoxMin       = 300
	RandomBoxMax       = 400
	RandomRadiusMin    = 80
	RandomRadiusMax    = 180
	RandomPrismMin     = 100
	RandomPrismMax     = 200
	RandomHeightMin    = 40
	RandomHeightMax    = 80
	RandomPrismSidesLo = 5
	RandomPrismSidesHi = 8
)

// Random picks a shape family and parameters for scenario variety.
func Random(rng *rand.Rand, center mgl32.Vec3) *Shape {
	height := uniform(rng, RandomHeightMin, RandomHeightMax)
	switch Kind(rng.IntN(3)) {
	case KindCylinder:
		return NewCylinder(center, uniform(rng, RandomRadiusMin, RandomRadiusMax), height)
	case KindPrism:
		sides := RandomPrismSidesLo + rng.IntN(RandomPrismSidesHi-RandomPrismSidesLo+1)
		return NewPrism(center, randomPolygon(rng, sides), height)
	default:
		return NewBox(center,
			uniform(rng, RandomBoxMin, RandomBoxMax),
			uniform(rng, RandomBoxMin, RandomBoxMax),
			height)
	}
}

// randomPolygon places vertices at jittered angles so the outline is a
// simple (non self-intersecting) star-shaped polygon.
func randomPolygon(rng *rand.Rand, sides int) []mgl32.Vec2 {
	step := 2 * math.Pi / float64(sides)
	angles := make([]float64, sides)
	for i := range angles {
		angles[i] = float64(i)*step + (rng.Float64()-0.5)*step*0.5
	}
	sort.Float64s(angles)
	poly := make([]mgl32.Vec2, sides)
	for i, a := range angles {
		r := uniform(rng, RandomPrismMin, RandomPrismMax)
		poly[i] = mgl32.Vec2{r * float32(math.Cos(a)), r * float32(math.Sin(a))}
	}
	return poly
}

func uniform(rng *rand.Rand, lo, hi float32) float32 {
	return lo + float32(rng.Float64())*(hi-lo)
}
