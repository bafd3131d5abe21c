// Package annotate copies tabular attributes onto graph nodes and reads
// them back.
package annotate

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/ritzau/recgraph/pkg/graph"
	"github.com/ritzau/recgraph/pkg/logging"
	"github.com/ritzau/recgraph/pkg/table"
)

var (
	// ErrNodeNotInTable is returned when a node id has no row in the table
	ErrNodeNotInTable = errors.New("node not found in table")
	// ErrInvalidDate is returned when a value is not a YYYY-MM-DD string
	ErrInvalidDate = errors.New("invalid date")
	// ErrNotNumeric is returned when a numeric view is requested of non-numbers
	ErrNotNumeric = errors.New("attribute is not numeric")
)

// FromTable sets, for every node, each of columns to the value found in
// the first row whose keyColumn equals the node id. Every node must have
// a row; duplicate keys silently resolve to the first row.
func FromTable(g *graph.Graph, df dataframe.DataFrame, keyColumn string, columns []string) error {
	keys, err := table.Column(df, keyColumn)
	if err != nil {
		return err
	}
	cols := make([]series.Series, len(columns))
	for i, name := range columns {
		if cols[i], err = table.Column(df, name); err != nil {
			return err
		}
	}

	index := table.Index(keys)
	for _, node := range g.Nodes() {
		row, ok := index[node.ID]
		if !ok {
			return fmt.Errorf("%w: %q (key column %q)", ErrNodeNotInTable, node.ID, keyColumn)
		}
		for i, name := range columns {
			node.SetAttr(name, table.Cell(cols[i], row))
		}
	}

	logging.Debug("annotated graph from table", "nodes", g.Len(), "columns", len(columns))
	return nil
}

// Values returns attr for every node that has it, in node order
func Values(g *graph.Graph, attr string) []graph.Value {
	var out []graph.Value
	for _, node := range g.Nodes() {
		if v := node.Attr(attr); !v.IsMissing() {
			out = append(out, v)
		}
	}
	return out
}

// Floats is Values restricted to numbers
func Floats(g *graph.Graph, attr string) ([]float64, error) {
	values := Values(g, attr)
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := v.Float()
		if !ok {
			return nil, fmt.Errorf("%w: %q holds %s value %q", ErrNotNumeric, attr, v.Kind(), v)
		}
		out[i] = f
	}
	return out, nil
}

// ConvertToDate replaces every node's text value of attr with the date it
// spells. Either every node converts or the graph is left untouched.
func ConvertToDate(g *graph.Graph, attr string) error {
	nodes := g.Nodes()
	dates := make([]time.Time, len(nodes))
	for i, node := range nodes {
		v := node.Attr(attr)
		s, ok := v.Str()
		if !ok {
			return fmt.Errorf("%w: node %q attribute %q is %s", ErrInvalidDate, node.ID, attr, v.Kind())
		}
		t, err := time.Parse(graph.DateLayout, s)
		if err != nil {
			return fmt.Errorf("%w: node %q attribute %q: %w", ErrInvalidDate, node.ID, attr, err)
		}
		dates[i] = t
	}

	for i, node := range nodes {
		node.SetAttr(attr, graph.Date(dates[i]))
	}
	return nil
}
