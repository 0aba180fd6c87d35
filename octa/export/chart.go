package export

import (
	"errors"
	"fmt"
	"image/color"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrNoSamples = errors.New("no growth samples recorded")

// GrowthSample is one point of the growth curve.
type GrowthSample struct {
	Frame    int
	Cells    int
	Visible  int
	Progress float64
}

// GrowthRecorder accumulates growth samples during a run and plots them
// afterwards. Safe for concurrent use.
type GrowthRecorder struct {
	mu      sync.Mutex
	samples []GrowthSample
}

func NewGrowthRecorder() *GrowthRecorder {
	return &GrowthRecorder{}
}

func (r *GrowthRecorder) Sample(s GrowthSample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func (r *GrowthRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Save plots total and visible cells against frame number. The format
// follows the file extension (png, svg, pdf).
func (r *GrowthRecorder) Save(path, title string) error {
	r.mu.Lock()
	samples := append([]GrowthSample(nil), r.samples...)
	r.mu.Unlock()
	if len(samples) == 0 {
		return ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Cells"

	cells := make(plotter.XYs, len(samples))
	visible := make(plotter.XYs, len(samples))
	for i, s := range samples {
		cells[i] = plotter.XY{X: float64(s.Frame), Y: float64(s.Cells)}
		visible[i] = plotter.XY{X: float64(s.Frame), Y: float64(s.Visible)}
	}

	series := []struct {
		name string
		pts  plotter.XYs
		col  color.Color
	}{
		{"cells", cells, ExposureStyle(0)},
		{"visible", visible, ExposureStyle(10)},
	}
	for _, s := range series {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return fmt.Errorf("%s line: %w", s.name, err)
		}
		line.Color = s.col
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = 10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save growth chart: %w", err)
	}
	return nil
}
