// Package table loads the tabular datasets (video and edge tables) that
// annotate and reduce recommendation graphs.
package table

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/ritzau/recgraph/pkg/graph"
)

// ErrUnknownColumn is returned when a requested column is not in a table
var ErrUnknownColumn = errors.New("unknown column")

// LoadCSV reads a CSV file with a header row. The listed key columns
// are read as strings so that numeric-looking ids keep their exact text;
// all other column types are inferred.
func LoadCSV(path string, keyColumns ...string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	types := make(map[string]series.Type, len(keyColumns))
	for _, c := range keyColumns {
		types[c] = series.String
	}

	df := dataframe.ReadCSV(f, dataframe.WithTypes(types))
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parsing table %s: %w", path, df.Err)
	}
	return df, nil
}

// Column returns the named column, or ErrUnknownColumn
func Column(df dataframe.DataFrame, name string) (series.Series, error) {
	for _, n := range df.Names() {
		if n == name {
			return df.Col(name), nil
		}
	}
	return series.Series{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// Index maps each distinct key record to the first row holding it
func Index(keys series.Series) map[string]int {
	idx := make(map[string]int, keys.Len())
	for i, rec := range keys.Records() {
		if _, seen := idx[rec]; !seen {
			idx[rec] = i
		}
	}
	return idx
}

// Cell converts one element of a column to an attribute value.
// NA and NaN become Missing.
func Cell(s series.Series, row int) graph.Value {
	e := s.Elem(row)
	if e.IsNA() {
		return graph.Missing
	}
	switch e.Type() {
	case series.Float:
		f := e.Float()
		if math.IsNaN(f) {
			return graph.Missing
		}
		return graph.Number(f)
	case series.Int:
		return graph.Number(e.Float())
	case series.Bool:
		b, err := e.Bool()
		if err != nil {
			return graph.Missing
		}
		return graph.ValueOf(b)
	default:
		return graph.Text(e.String())
	}
}
