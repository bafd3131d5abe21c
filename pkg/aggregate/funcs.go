package aggregate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ritzau/recgraph/pkg/graph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNotNumeric is returned by the numeric aggregations on non-number input
var ErrNotNumeric = errors.New("value is not numeric")

// ErrUnknownFunc is returned by Lookup for an unregistered name
var ErrUnknownFunc = errors.New("unknown aggregation")

func numbers(values []graph.Value) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := v.Float()
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", ErrNotNumeric, v.Kind(), v)
		}
		out[i] = f
	}
	return out, nil
}

func numeric(reduce func([]float64) float64) Func {
	return func(values []graph.Value) (graph.Value, error) {
		xs, err := numbers(values)
		if err != nil {
			return graph.Missing, err
		}
		return graph.Number(reduce(xs)), nil
	}
}

// Mean is the arithmetic mean
var Mean Func = numeric(func(xs []float64) float64 { return stat.Mean(xs, nil) })

// Median is the midpoint of the sorted values (mean of the middle pair
// for even lengths). stat.Quantile has no averaging mode, hence by hand.
var Median Func = numeric(func(xs []float64) float64 {
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
})

// Max is the largest value
var Max Func = numeric(floats.Max)

// Min is the smallest value
var Min Func = numeric(floats.Min)

// Sum is the total
var Sum Func = numeric(floats.Sum)

// Count is the number of values of any kind
func Count(values []graph.Value) (graph.Value, error) {
	return graph.Number(float64(len(values))), nil
}

// First is the first value in neighbor order
func First(values []graph.Value) (graph.Value, error) {
	return values[0], nil
}

var registry = map[string]Func{
	"mean":   Mean,
	"median": Median,
	"max":    Max,
	"min":    Min,
	"sum":    Sum,
	"count":  Count,
	"first":  First,
}

// Lookup returns the named stock aggregation
func Lookup(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunc, name)
	}
	return fn, nil
}

// Names lists the stock aggregations, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
