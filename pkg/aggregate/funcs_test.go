package aggregate

import (
	"errors"
	"testing"

	"github.com/ritzau/recgraph/pkg/graph"
)

func nums(xs ...float64) []graph.Value {
	out := make([]graph.Value, len(xs))
	for i, x := range xs {
		out[i] = graph.Number(x)
	}
	return out
}

func TestStockFuncs(t *testing.T) {
	values := nums(4, 1, 3, 2)

	tests := []struct {
		name string
		want float64
	}{
		{"mean", 2.5},
		{"median", 2.5},
		{"max", 4},
		{"min", 1},
		{"sum", 10},
		{"count", 4},
		{"first", 4},
	}

	for _, tt := range tests {
		fn, err := Lookup(tt.name)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", tt.name, err)
		}
		got, err := fn(values)
		if err != nil {
			t.Fatalf("%s() error = %v", tt.name, err)
		}
		if f, _ := got.Float(); f != tt.want {
			t.Errorf("%s() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMedianOdd(t *testing.T) {
	got, err := Median(nums(9, 1, 5))
	if err != nil {
		t.Fatal(err)
	}
	if f, _ := got.Float(); f != 5 {
		t.Errorf("Median() = %v, want 5", got)
	}
}

func TestMedianEvenAveragesMiddlePair(t *testing.T) {
	got, err := Median(nums(10, 1, 4, 7))
	if err != nil {
		t.Fatal(err)
	}
	if f, _ := got.Float(); f != 5.5 {
		t.Errorf("Median() = %v, want 5.5", got)
	}
}

func TestCountAndFirstAcceptText(t *testing.T) {
	values := []graph.Value{graph.Text("x"), graph.Text("y")}

	if got, _ := Count(values); got.String() != "2" {
		t.Errorf("Count() = %v, want 2", got)
	}
	if got, _ := First(values); got.String() != "x" {
		t.Errorf("First() = %v, want x", got)
	}
	if _, err := Mean(values); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("Expected ErrNotNumeric, got %v", err)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("mode"); !errors.Is(err, ErrUnknownFunc) {
		t.Errorf("Expected ErrUnknownFunc, got %v", err)
	}
	if len(Names()) != 7 {
		t.Errorf("Expected 7 stock aggregations, got %v", Names())
	}
}
