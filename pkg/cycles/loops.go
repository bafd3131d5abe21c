package cycles

import (
	"cmp"
	"slices"

	"github.com/ritzau/recgraph/pkg/graph"
	"gonum.org/v1/gonum/graph/topo"
)

// Loop is a set of nodes that all recommend their way back to each other
type Loop struct {
	Nodes []string `json:"nodes"` // in graph insertion order
}

// FindLoops returns the recommendation loops of g, largest first. Loops of
// equal size keep the order of their earliest-inserted node. Self-loops
// alone do not form a loop.
func FindLoops(g *graph.Graph) []Loop {
	// Node IDs are insertion indices
	var sccs [][]int64
	for _, component := range topo.TarjanSCC(g.Directed()) {
		if len(component) < 2 {
			continue
		}
		ids := make([]int64, len(component))
		for i, n := range component {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		sccs = append(sccs, ids)
	}
	slices.SortFunc(sccs, func(a, b []int64) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a[0], b[0])
	})

	loops := make([]Loop, 0, len(sccs))
	for _, scc := range sccs {
		loop := Loop{Nodes: make([]string, 0, len(scc))}
		for _, id := range scc {
			if n := g.NodeByID(id); n != nil {
				loop.Nodes = append(loop.Nodes, n.ID)
			}
		}
		loops = append(loops, loop)
	}
	return loops
}
