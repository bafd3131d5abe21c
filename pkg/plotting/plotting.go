// Package plotting draws attribute distributions of a recommendation
// graph onto an explicit gonum plot.
package plotting

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand/v2"

	"github.com/ritzau/recgraph/pkg/annotate"
	"github.com/ritzau/recgraph/pkg/graph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	// ErrNoData is returned when there is nothing to draw
	ErrNoData = errors.New("no values to plot")
	// ErrLengthMismatch is returned when scatter coordinates differ in length
	ErrLengthMismatch = errors.New("x and y lengths differ")
	// ErrNonPositive is returned for log-scale histograms of values <= 0
	ErrNonPositive = errors.New("log scale needs positive values")
)

// HistOptions controls Histogram
type HistOptions struct {
	LogScale bool
	Alpha    float64 // fill opacity in [0, 1]; 0 means opaque
	Label    string  // legend entry, none when empty
	Bins     int     // defaults to 20
	Color    color.Color
}

// Histogram draws a density-normalized histogram of attr's numeric
// values. With LogScale the bins are log-spaced and the X axis is
// logarithmic.
func Histogram(p *plot.Plot, g *graph.Graph, attr string, opts HistOptions) error {
	values, err := annotate.Floats(g, attr)
	if err != nil {
		return err
	}
	h, err := NewHistogram(values, opts)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", attr, err)
	}

	if opts.LogScale {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Add(h)
	if opts.Label != "" {
		p.Legend.Add(opts.Label, h)
	}
	return nil
}

// NewHistogram bins values into a density-normalized histogram styled by
// opts, without drawing it
func NewHistogram(values []float64, opts HistOptions) (*plotter.Histogram, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	if opts.Bins <= 0 {
		opts.Bins = 20
	}

	var h *plotter.Histogram
	if opts.LogScale {
		if floats.Min(values) <= 0 {
			return nil, ErrNonPositive
		}
		h = logHistogram(values, opts.Bins)
	} else {
		var err error
		h, err = plotter.NewHist(plotter.Values(values), opts.Bins)
		if err != nil {
			return nil, err
		}
		h.Normalize(1)
	}

	h.FillColor = withAlpha(opts.Color, opts.Alpha)
	return h, nil
}

// logHistogram bins positive values on log-spaced edges with density
// weights (count / (total * bin width))
func logHistogram(values []float64, n int) *plotter.Histogram {
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		lo, hi = lo/2, hi*2
	}
	edges := floats.LogSpan(make([]float64, n+1), lo, hi)
	edges[0], edges[n] = lo, hi

	counts := make([]float64, n)
	for _, v := range values {
		i := floats.Within(edges, v)
		if i < 0 {
			i = n - 1 // v == hi lands on the last edge
		}
		counts[i]++
	}

	total := float64(len(values))
	bins := make([]plotter.HistogramBin, n)
	for i := range bins {
		width := edges[i+1] - edges[i]
		bins[i] = plotter.HistogramBin{
			Min:    edges[i],
			Max:    edges[i+1],
			Weight: counts[i] / (total * width),
		}
	}
	return &plotter.Histogram{
		Bins:      bins,
		Width:     (hi - lo) / float64(n),
		LineStyle: plotter.DefaultLineStyle,
	}
}

// ScatterOptions controls JitteredScatter
type ScatterOptions struct {
	JitterStd float64
	Alpha     float64
	DotSize   float64 // glyph radius in points; defaults to 2
	Label     string
	Color     color.Color
	Src       rand.Source // nil uses the global source
}

// JitteredScatter draws xs against ys after adding independent
// zero-mean Gaussian noise with standard deviation JitterStd on each axis
func JitteredScatter(p *plot.Plot, xs, ys []float64, opts ScatterOptions) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return ErrNoData
	}
	if opts.DotSize <= 0 {
		opts.DotSize = 2
	}

	jx := Jitter(xs, opts.JitterStd, opts.Src)
	jy := Jitter(ys, opts.JitterStd, opts.Src)
	pts := make(plotter.XYs, len(xs))
	for i := range pts {
		pts[i].X, pts[i].Y = jx[i], jy[i]
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = withAlpha(opts.Color, opts.Alpha)
	s.GlyphStyle.Radius = vg.Points(opts.DotSize)
	s.GlyphStyle.Shape = draw.CircleGlyph{}

	p.Add(s)
	if opts.Label != "" {
		p.Legend.Add(opts.Label, s)
	}
	return nil
}

// Jitter returns a copy of values with N(0, std²) noise added to each.
// A zero std returns the values unchanged.
func Jitter(values []float64, std float64, src rand.Source) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if std == 0 {
		return out
	}
	noise := distuv.Normal{Mu: 0, Sigma: std, Src: src}
	for i := range out {
		out[i] += noise.Rand()
	}
	return out
}

// Save writes p to path; the extension selects the image format
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}

func withAlpha(c color.Color, alpha float64) color.Color {
	if c == nil {
		c = plotutil.Color(0)
	}
	if alpha <= 0 || alpha >= 1 {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(alpha * 255)
	return n
}

// Pairs collects (x, y) attribute pairs from the nodes that have both,
// in node order
func Pairs(g *graph.Graph, xAttr, yAttr string) ([]float64, []float64, error) {
	var xs, ys []float64
	for _, n := range g.Nodes() {
		xv, yv := n.Attr(xAttr), n.Attr(yAttr)
		if xv.IsMissing() || yv.IsMissing() {
			continue
		}
		x, okX := xv.Float()
		y, okY := yv.Float()
		if !okX || !okY {
			return nil, nil, fmt.Errorf("%w: node %q", annotate.ErrNotNumeric, n.ID)
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys, nil
}
