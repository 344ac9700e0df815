package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Downsample picks at most n evenly spaced samples, always keeping the
// last one.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	step := float64(len(values)-1) / float64(n-1)
	for i := range out {
		out[i] = values[int(float64(i)*step+0.5)]
	}
	return out
}

// PlotTrace draws one series as an asciigraph chart.
func PlotTrace(values []float64, caption string, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(Downsample(values, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// PlotComparison overlays a measured and a model series.
func PlotComparison(measured, model []float64, caption string, width, height int) string {
	if len(measured) == 0 || len(model) == 0 {
		return ""
	}
	return asciigraph.PlotMany(
		[][]float64{Downsample(measured, width), Downsample(model, width)},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.SeriesLegends("measured", "model"),
	)
}

// Line is one named series for SavePNG.
type Line struct {
	Name string
	X, Y []float64
}

func (l Line) xys() (plotter.XYs, error) {
	if len(l.X) != len(l.Y) || len(l.X) == 0 {
		return nil, fmt.Errorf("viz: line %q has %d x and %d y values", l.Name, len(l.X), len(l.Y))
	}
	pts := make(plotter.XYs, len(l.X))
	for i := range l.X {
		pts[i].X = l.X[i]
		pts[i].Y = l.Y[i]
	}
	return pts, nil
}

// SavePNG writes the lines to path; the image format follows the file
// extension.
func SavePNG(path, title, xlabel, ylabel string, lines ...Line) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	args := make([]any, 0, 2*len(lines))
	for _, l := range lines {
		pts, err := l.xys()
		if err != nil {
			return err
		}
		args = append(args, l.Name, pts)
	}
	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
