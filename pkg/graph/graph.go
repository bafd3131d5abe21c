package graph

import (
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

// Node is a graph vertex keyed by an externally assigned identifier
// (a video or channel id) carrying named attributes
type Node struct {
	ID    string
	attrs map[string]Value
}

// Attr returns the named attribute, or Missing if it was never set
func (n *Node) Attr(name string) Value {
	return n.attrs[name]
}

// SetAttr sets the named attribute. Setting Missing clears it.
func (n *Node) SetAttr(name string, v Value) {
	if v.IsMissing() {
		delete(n.attrs, name)
		return
	}
	n.attrs[name] = v
}

// Attrs returns a copy of all present attributes
func (n *Node) Attrs() map[string]Value {
	out := make(map[string]Value, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// Graph is a directed recommendation graph. In a simple graph adding an
// existing edge is a no-op; a multigraph keeps every edge as a parallel
// line. Self-loops are allowed in both.
type Graph struct {
	g          *multi.DirectedGraph
	multigraph bool
	nodes      []*Node          // insertion order; index == gonum ID
	ids        map[string]int64 // external id -> gonum ID
}

// New creates an empty simple directed graph
func New() *Graph {
	return newGraph(false)
}

// NewMulti creates an empty directed multigraph
func NewMulti() *Graph {
	return newGraph(true)
}

func newGraph(multigraph bool) *Graph {
	return &Graph{
		g:          multi.NewDirectedGraph(),
		multigraph: multigraph,
		ids:        make(map[string]int64),
	}
}

// IsMulti reports whether parallel edges are kept
func (g *Graph) IsMulti() bool { return g.multigraph }

// AddNode adds a node with the given id and returns it. Adding an
// existing id returns the existing node.
func (g *Graph) AddNode(id string) *Node {
	if nid, exists := g.ids[id]; exists {
		return g.nodes[nid]
	}

	nid := int64(len(g.nodes))
	node := &Node{ID: id, attrs: make(map[string]Value)}
	g.nodes = append(g.nodes, node)
	g.ids[id] = nid

	g.g.AddNode(multi.Node(nid))

	return node
}

// AddEdge adds a directed edge, creating missing endpoints
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)

	fid, tid := g.ids[from], g.ids[to]
	if !g.multigraph && g.g.HasEdgeFromTo(fid, tid) {
		return
	}
	g.g.SetLine(g.g.NewLine(g.g.Node(fid), g.g.Node(tid)))
}

// Node returns the node with the given id
func (g *Graph) Node(id string) (*Node, bool) {
	nid, exists := g.ids[id]
	if !exists {
		return nil, false
	}
	return g.nodes[nid], true
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Len returns the number of nodes
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of edges, counting parallel lines
func (g *Graph) EdgeCount() int {
	n := 0
	edges := g.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		n += g.lineCount(e.From().ID(), e.To().ID())
	}
	return n
}

// Edges returns all edges as [from, to] pairs, one per parallel line,
// ordered by source then target insertion order
func (g *Graph) Edges() [][2]string {
	var edges [][2]string
	for fid, from := range g.nodes {
		for _, tid := range g.sortedIDs(g.g.From(int64(fid))) {
			to := g.nodes[tid]
			for range g.lineCount(int64(fid), tid) {
				edges = append(edges, [2]string{from.ID, to.ID})
			}
		}
	}
	return edges
}

// Predecessors returns the nodes with an edge into id, in insertion
// order. Parallel edges contribute one predecessor.
func (g *Graph) Predecessors(id string) []*Node {
	nid, exists := g.ids[id]
	if !exists {
		return nil
	}
	return g.lookup(g.sortedIDs(g.g.To(nid)))
}

// Successors returns the nodes id has an edge to, in insertion order
func (g *Graph) Successors(id string) []*Node {
	nid, exists := g.ids[id]
	if !exists {
		return nil
	}
	return g.lookup(g.sortedIDs(g.g.From(nid)))
}

// InDegree returns the number of edges into id, counting parallel lines
func (g *Graph) InDegree(id string) int {
	nid, exists := g.ids[id]
	if !exists {
		return 0
	}
	deg := 0
	preds := g.g.To(nid)
	for preds.Next() {
		deg += g.lineCount(preds.Node().ID(), nid)
	}
	return deg
}

// Directed exposes the underlying gonum graph for gonum algorithms.
// Node IDs map back to identifiers through NodeByID.
func (g *Graph) Directed() gonum.Directed {
	return g.g
}

// NodeByID returns the node for a gonum ID
func (g *Graph) NodeByID(id int64) *Node {
	if id < 0 || id >= int64(len(g.nodes)) {
		return nil
	}
	return g.nodes[id]
}

func (g *Graph) lineCount(from, to int64) int {
	return g.g.Lines(from, to).Len()
}

func (g *Graph) sortedIDs(iter gonum.Nodes) []int64 {
	ids := make([]int64, 0, iter.Len())
	for iter.Next() {
		ids = append(ids, iter.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Graph) lookup(ids []int64) []*Node {
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}
