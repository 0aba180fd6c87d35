package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/gekko3d/octagrow/octa/boundary"
	"github.com/gekko3d/octagrow/octa/lattice"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

type ProjectionOptions struct {
	// Width of the output image; height follows the boundary aspect ratio.
	Width      int
	Background color.Color
	Wire       color.Color
	Title      string
	Legend     bool
}

func (o *ProjectionOptions) defaults() {
	if o.Width <= 0 {
		o.Width = 768
	}
	if o.Background == nil {
		o.Background = color.RGBA{R: 16, G: 16, B: 24, A: 255}
	}
	if o.Wire == nil {
		o.Wire = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	}
}

// TopDown projects cells onto the XZ plane, looking down the Y axis. classes
// holds cell positions per exposure class; only the topmost cell of each
// column is drawn. lo and hi frame the view, pitch is the lattice spacing.
func TopDown(classes [][]mgl32.Vec3, wire []boundary.Segment, lo, hi mgl32.Vec3, pitch float32, opts ProjectionOptions) *image.RGBA {
	opts.defaults()
	if pitch <= 0 {
		pitch = lattice.DefaultSquareDistance
	}
	// Half-pitch pixels keep both sub-lattices distinct.
	px := pitch / 2
	gw := max(1, int(math.Ceil(float64((hi[0]-lo[0])/px))))
	gh := max(1, int(math.Ceil(float64((hi[2]-lo[2])/px))))
	cell := func(v, origin float32, n int) (int, bool) {
		i := int(math.Floor(float64((v - origin) / px)))
		if i == n {
			i--
		}
		return i, i >= 0 && i < n
	}

	small := image.NewRGBA(image.Rect(0, 0, gw, gh))
	draw.Draw(small, small.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	top := make([]float32, gw*gh)
	for i := range top {
		top[i] = float32(math.Inf(-1))
	}
	for class, cells := range classes {
		c := ExposureStyle(class)
		for _, p := range cells {
			x, okx := cell(p[0], lo[0], gw)
			z, okz := cell(p[2], lo[2], gh)
			if !okx || !okz {
				continue
			}
			if i := z*gw + x; p[1] > top[i] {
				top[i] = p[1]
				small.SetRGBA(x, z, c)
			}
		}
	}

	height := max(1, opts.Width*gh/gw)
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, height))
	draw.NearestNeighbor.Scale(img, img.Bounds(), small, small.Bounds(), draw.Src, nil)

	sx := float32(opts.Width) / (float32(gw) * px)
	sz := float32(height) / (float32(gh) * px)
	toPixel := func(p mgl32.Vec3) (float32, float32) {
		return (p[0] - lo[0]) * sx, (p[2] - lo[2]) * sz
	}
	src := image.NewUniform(opts.Wire)
	for _, s := range wire {
		ax, ay := toPixel(s.A)
		bx, by := toPixel(s.B)
		strokeLine(img, src, ax, ay, bx, by, 1.5)
	}

	y := 4
	if opts.Title != "" {
		label(img, 6, y, opts.Title, color.White)
		y += 16
	}
	if opts.Legend {
		legend(img, 6, y)
	}
	return img
}

// strokeLine rasterizes a segment as a quad of the given width.
func strokeLine(dst *image.RGBA, src image.Image, ax, ay, bx, by, width float32) {
	dx, dy := bx-ax, by-ay
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l < 0.5 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(ax+nx, ay+ny)
	z.LineTo(bx+nx, by+ny)
	z.LineTo(bx-nx, by-ny)
	z.LineTo(ax-nx, ay-ny)
	z.ClosePath()
	z.Draw(dst, b, src, image.Point{})
}

func label(img *image.RGBA, x, y int, text string, col color.Color) {
	face := basicfont.Face7x13
	bg := image.Rect(x-2, y-1, x+len(text)*7+2, y+face.Height+1)
	draw.Draw(img, bg, image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Over)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + face.Ascent)},
	}
	d.DrawString(text)
}

func legend(img *image.RGBA, x, y int) {
	for class := 0; class < lattice.NeighborCount; class++ {
		row := y + class*14
		swatch := image.Rect(x, row+2, x+10, row+12)
		draw.Draw(img, swatch, image.NewUniform(ExposureStyle(class)), image.Point{}, draw.Src)
		label(img, x+14, row, fmt.Sprintf("%2d", class), color.White)
	}
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
