package plotting

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/ritzau/recgraph/pkg/graph"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

func viewsGraph(views ...float64) *graph.Graph {
	g := graph.New()
	for i, v := range views {
		g.AddNode(string(rune('a' + i))).SetAttr("views", graph.Number(v))
	}
	g.AddNode("unscored")
	return g
}

// render draws p to PNG bytes; identical plots render identically
func render(t *testing.T, p *plot.Plot) []byte {
	t.Helper()
	wt, err := p.WriterTo(4*vg.Inch, 3*vg.Inch, "png")
	if err != nil {
		t.Fatalf("WriterTo() error = %v", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		t.Fatalf("rendering plot: %v", err)
	}
	return buf.Bytes()
}

func TestJitterZeroStdIsIdentity(t *testing.T) {
	values := []float64{1.5, -2, 0, 1e9}
	src := rand.NewPCG(1, 2)

	for range 100 {
		got := Jitter(values, 0, src)
		for i := range values {
			if got[i] != values[i] {
				t.Fatalf("Jitter with std 0 changed %v to %v", values[i], got[i])
			}
		}
	}
}

func TestJitterDeterministicWithSeed(t *testing.T) {
	values := make([]float64, 50)

	a := Jitter(values, 1, rand.NewPCG(7, 7))
	b := Jitter(values, 1, rand.NewPCG(7, 7))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Same seed should give same jitter, got %v and %v at %d", a[i], b[i], i)
		}
	}
	if values[0] != 0 {
		t.Error("Jitter must not modify its input")
	}
}

func TestJitterSpread(t *testing.T) {
	values := make([]float64, 20000)
	got := Jitter(values, 2, rand.NewPCG(3, 4))

	mean, std := stat.MeanStdDev(got, nil)
	if math.Abs(mean) > 0.1 {
		t.Errorf("Expected mean near 0, got %v", mean)
	}
	if math.Abs(std-2) > 0.1 {
		t.Errorf("Expected std near 2, got %v", std)
	}
}

func TestJitteredScatter(t *testing.T) {
	scatter := func(label string) *plot.Plot {
		p := plot.New()
		err := JitteredScatter(p, []float64{1, 2, 3}, []float64{3, 2, 1}, ScatterOptions{
			JitterStd: 0.1,
			Alpha:     0.5,
			DotSize:   3,
			Label:     label,
			Src:       rand.NewPCG(1, 1),
		})
		if err != nil {
			t.Fatalf("JitteredScatter() error = %v", err)
		}
		return p
	}

	plain := render(t, scatter(""))
	if !bytes.Equal(plain, render(t, scatter(""))) {
		t.Fatal("Expected the same seed to render the same scatter")
	}
	if bytes.Equal(plain, render(t, scatter("views vs likes"))) {
		t.Error("Expected a label to add a legend entry")
	}
}

func TestJitteredScatterLengthMismatch(t *testing.T) {
	err := JitteredScatter(plot.New(), []float64{1, 2}, []float64{1}, ScatterOptions{})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func TestHistogram(t *testing.T) {
	p := plot.New()
	g := viewsGraph(1, 2, 2, 3, 3, 3, 4)

	if err := Histogram(p, g, "views", HistOptions{Bins: 4, Label: "views"}); err != nil {
		t.Fatalf("Histogram() error = %v", err)
	}

	unlabeled := plot.New()
	if err := Histogram(unlabeled, g, "views", HistOptions{Bins: 4}); err != nil {
		t.Fatalf("Histogram() error = %v", err)
	}
	if bytes.Equal(render(t, p), render(t, unlabeled)) {
		t.Error("Expected a label to add a legend entry")
	}
}

func TestNewHistogramDensity(t *testing.T) {
	h, err := NewHistogram([]float64{1, 2, 2, 3, 3, 3, 4}, HistOptions{Bins: 4})
	if err != nil {
		t.Fatalf("NewHistogram() error = %v", err)
	}

	area := 0.0
	for _, b := range h.Bins {
		area += b.Weight * (b.Max - b.Min)
	}
	if math.Abs(area-1) > 1e-9 {
		t.Errorf("Expected density area 1, got %v", area)
	}
}

func TestHistogramLogScale(t *testing.T) {
	p := plot.New()
	g := viewsGraph(1, 10, 100, 1000, 10000)

	if err := Histogram(p, g, "views", HistOptions{LogScale: true, Bins: 4, Alpha: 0.5}); err != nil {
		t.Fatalf("Histogram() error = %v", err)
	}
	if _, ok := p.X.Scale.(plot.LogScale); !ok {
		t.Errorf("Expected a log X scale, got %T", p.X.Scale)
	}
	if _, ok := p.X.Tick.Marker.(plot.LogTicks); !ok {
		t.Errorf("Expected log ticks, got %T", p.X.Tick.Marker)
	}
}

func TestNewHistogramLogBins(t *testing.T) {
	h, err := NewHistogram([]float64{1, 10, 100, 1000, 10000}, HistOptions{LogScale: true, Bins: 4})
	if err != nil {
		t.Fatalf("NewHistogram() error = %v", err)
	}

	area := 0.0
	for _, b := range h.Bins {
		area += b.Weight * (b.Max - b.Min)
	}
	if math.Abs(area-1) > 1e-9 {
		t.Errorf("Expected density area 1, got %v", area)
	}
	if h.Bins[0].Min != 1 || h.Bins[len(h.Bins)-1].Max != 10000 {
		t.Errorf("Expected bins to span [1, 10000], got [%v, %v]", h.Bins[0].Min, h.Bins[len(h.Bins)-1].Max)
	}
}

func TestHistogramErrors(t *testing.T) {
	if err := Histogram(plot.New(), viewsGraph(0, 5), "views", HistOptions{LogScale: true}); !errors.Is(err, ErrNonPositive) {
		t.Errorf("Expected ErrNonPositive, got %v", err)
	}
	if err := Histogram(plot.New(), viewsGraph(1), "likes", HistOptions{}); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
}

func TestPairs(t *testing.T) {
	g := graph.New()
	g.AddNode("a").SetAttr("x", graph.Number(1))
	g.Nodes()[0].SetAttr("y", graph.Number(2))
	g.AddNode("b").SetAttr("x", graph.Number(3))
	c := g.AddNode("c")
	c.SetAttr("x", graph.Number(5))
	c.SetAttr("y", graph.Number(6))

	xs, ys, err := Pairs(g, "x", "y")
	if err != nil {
		t.Fatalf("Pairs() error = %v", err)
	}
	if len(xs) != 2 || xs[0] != 1 || xs[1] != 5 || ys[0] != 2 || ys[1] != 6 {
		t.Errorf("Expected [1 5]/[2 6], got %v/%v", xs, ys)
	}
}

func TestSave(t *testing.T) {
	p := plot.New()
	if err := Histogram(p, viewsGraph(1, 2, 3), "views", HistOptions{}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "hist.png")
	if err := Save(p, path, 3*vg.Inch, 2*vg.Inch); err != nil {
		t.Errorf("Save() error = %v", err)
	}
}

