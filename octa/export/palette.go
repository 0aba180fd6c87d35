// Package export turns simulation output into files: a top-down projection
// of the aggregate colored by exposure class and a growth chart.
package export

import (
	"image/color"
	"math"

	"github.com/gekko3d/octagrow/octa/lattice"
)

// ExposureStyle maps an exposure count to a draw color. Sparse cells are
// warm, crowded ones cool; fully enclosed cells are gray.
func ExposureStyle(count int) color.RGBA {
	if count < 0 {
		return color.RGBA{A: 0}
	}
	if count >= lattice.NeighborCount {
		return color.RGBA{R: 90, G: 90, B: 90, A: 255}
	}
	hue := 0.7 * float64(count) / float64(lattice.NeighborCount-1)
	r, g, b := hslToRGB(hue, 0.75, 0.5)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// hslToRGB converts HSL in [0,1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3)
	}
	return uint8(math.Round(rf * 255)), uint8(math.Round(gf * 255)), uint8(math.Round(bf * 255))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}
