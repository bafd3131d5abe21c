// Package aggregate summarizes an attribute over each node's direct
// predecessors or successors.
package aggregate

import (
	"errors"
	"fmt"
	"time"

	"github.com/ritzau/recgraph/pkg/graph"
)

// ErrNotDate is returned when a time difference involves a non-date value
var ErrNotDate = errors.New("attribute is not a date")

// Func reduces a non-empty sequence of neighbor values to one value
type Func func(values []graph.Value) (graph.Value, error)

type neighbors func(g *graph.Graph, id string) []*graph.Node

func predecessors(g *graph.Graph, id string) []*graph.Node { return g.Predecessors(id) }
func successors(g *graph.Graph, id string) []*graph.Node   { return g.Successors(id) }

// Predecessors sets newAttr on every node to fn over the attr values of
// its predecessors. Missing values are skipped; a node with nothing left
// to aggregate gets Missing.
func Predecessors(g *graph.Graph, attr string, fn Func, newAttr string) error {
	return apply(g, newAttr, func(node *graph.Node) ([]graph.Value, error) {
		return collect(g, node, attr, predecessors), nil
	}, fn)
}

// Successors is Predecessors over outgoing edges
func Successors(g *graph.Graph, attr string, fn Func, newAttr string) error {
	return apply(g, newAttr, func(node *graph.Node) ([]graph.Value, error) {
		return collect(g, node, attr, successors), nil
	}, fn)
}

// PredecessorTimeDiff aggregates the whole-day differences between each
// node's dateAttr and each predecessor's. Positive means the node is the
// later of the two. Both sides must already be dates.
func PredecessorTimeDiff(g *graph.Graph, dateAttr string, fn Func, newAttr string) error {
	return apply(g, newAttr, func(node *graph.Node) ([]graph.Value, error) {
		return dayDiffs(g, node, dateAttr, predecessors)
	}, fn)
}

// SuccessorTimeDiff is PredecessorTimeDiff over outgoing edges
func SuccessorTimeDiff(g *graph.Graph, dateAttr string, fn Func, newAttr string) error {
	return apply(g, newAttr, func(node *graph.Node) ([]graph.Value, error) {
		return dayDiffs(g, node, dateAttr, successors)
	}, fn)
}

// apply computes every node's result before storing any, so newAttr may
// name the attribute being read
func apply(g *graph.Graph, newAttr string, gather func(*graph.Node) ([]graph.Value, error), fn Func) error {
	nodes := g.Nodes()
	results := make([]graph.Value, len(nodes))
	for i, node := range nodes {
		values, err := gather(node)
		if err != nil {
			return err
		}
		if len(values) == 0 {
			results[i] = graph.Missing
			continue
		}
		if results[i], err = fn(values); err != nil {
			return fmt.Errorf("aggregating %q for node %q: %w", newAttr, node.ID, err)
		}
	}

	for i, node := range nodes {
		node.SetAttr(newAttr, results[i])
	}
	return nil
}

func collect(g *graph.Graph, node *graph.Node, attr string, next neighbors) []graph.Value {
	var values []graph.Value
	for _, nb := range next(g, node.ID) {
		if v := nb.Attr(attr); !v.IsMissing() {
			values = append(values, v)
		}
	}
	return values
}

func dayDiffs(g *graph.Graph, node *graph.Node, attr string, next neighbors) ([]graph.Value, error) {
	nbs := next(g, node.ID)
	if len(nbs) == 0 {
		return nil, nil
	}

	own, ok := node.Attr(attr).Time()
	if !ok {
		return nil, fmt.Errorf("%w: node %q attribute %q is %s", ErrNotDate, node.ID, attr, node.Attr(attr).Kind())
	}

	values := make([]graph.Value, 0, len(nbs))
	for _, nb := range nbs {
		other, ok := nb.Attr(attr).Time()
		if !ok {
			return nil, fmt.Errorf("%w: node %q attribute %q is %s", ErrNotDate, nb.ID, attr, nb.Attr(attr).Kind())
		}
		values = append(values, graph.Number(float64(daysBetween(other, own))))
	}
	return values, nil
}

// daysBetween returns the whole days from a to b. Dates are UTC midnight
// so the division is exact. Unix seconds avoid time.Duration's ~292 year
// limit.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60
