package graph

import (
	"slices"
	"strconv"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
)

// dotNode collects a DOT node's id and attributes while decoding
type dotNode struct {
	multi.Node
	dotID string
	attrs []encoding.Attribute
}

func (n *dotNode) SetDOTID(id string) { n.dotID = id }

func (n *dotNode) SetAttribute(attr encoding.Attribute) error {
	n.attrs = append(n.attrs, attr)
	return nil
}

// dotBuilder is the decode target handed to gonum's DOT unmarshaler
type dotBuilder struct {
	*multi.DirectedGraph
}

func (b dotBuilder) NewNode() gonum.Node {
	return &dotNode{Node: multi.Node(b.DirectedGraph.NewNode().ID())}
}

// DecodeDOT builds a multigraph from a Graphviz digraph. Attribute values
// that parse as numbers become Number values, the rest Text.
func DecodeDOT(data []byte) (*Graph, error) {
	b := dotBuilder{DirectedGraph: multi.NewDirectedGraph()}
	if err := dot.UnmarshalMulti(data, b); err != nil {
		return nil, err
	}

	g := NewMulti()

	// Preserve declaration order: decoder IDs are assigned sequentially.
	byID := make(map[int64]*dotNode)
	var order []int64
	nodes := b.Nodes()
	for nodes.Next() {
		dn, ok := nodes.Node().(*dotNode)
		if !ok {
			continue
		}
		byID[dn.ID()] = dn
		order = append(order, dn.ID())
	}
	slices.Sort(order)

	for _, id := range order {
		dn := byID[id]
		node := g.AddNode(dn.dotID)
		for _, attr := range dn.attrs {
			node.SetAttr(attr.Key, parseDOTValue(attr.Value))
		}
	}

	for _, fid := range order {
		for _, tid := range g.sortedIDs(b.From(fid)) {
			n := b.Lines(fid, tid).Len()
			for range n {
				g.AddEdge(byID[fid].dotID, byID[tid].dotID)
			}
		}
	}

	return g, nil
}

func parseDOTValue(s string) Value {
	if s == "" {
		return Missing
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Text(s)
}
