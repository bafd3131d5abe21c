// Package reduce derives a coarser group-level multigraph (channels)
// from a fine-grained edge table (video recommendations).
package reduce

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/ritzau/recgraph/pkg/graph"
	"github.com/ritzau/recgraph/pkg/logging"
	"github.com/ritzau/recgraph/pkg/table"
)

// ErrUnknownNode is returned when an edge endpoint is not in the node table
var ErrUnknownNode = errors.New("edge endpoint not found in node table")

// Options names the id columns of the node and edge tables
type Options struct {
	NodeKey string // node table id column
	From    string // edge table source column
	To      string // edge table target column
}

// DefaultOptions matches the video and recommendation table exports
func DefaultOptions() Options {
	return Options{
		NodeKey: "video_id",
		From:    "from_id",
		To:      "to_id",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NodeKey == "" {
		o.NodeKey = d.NodeKey
	}
	if o.From == "" {
		o.From = d.From
	}
	if o.To == "" {
		o.To = d.To
	}
	return o
}

// ToGroups maps every edge row through the node -> groupBy lookup and
// adds the mapped edge to a new multigraph. Parallel edges and self-loops
// are kept; group nodes appear in first-use order.
func ToGroups(nodes, edges dataframe.DataFrame, groupBy string, opts Options) (*graph.Graph, error) {
	opts = opts.withDefaults()

	groupOf, err := GroupLookup(nodes, opts.NodeKey, groupBy)
	if err != nil {
		return nil, err
	}

	from, err := table.Column(edges, opts.From)
	if err != nil {
		return nil, err
	}
	to, err := table.Column(edges, opts.To)
	if err != nil {
		return nil, err
	}

	g := graph.NewMulti()
	fromIDs, toIDs := from.Records(), to.Records()
	for i := range fromIDs {
		src, ok := groupOf[fromIDs[i]]
		if !ok {
			return nil, fmt.Errorf("%w: %q (row %d)", ErrUnknownNode, fromIDs[i], i)
		}
		dst, ok := groupOf[toIDs[i]]
		if !ok {
			return nil, fmt.Errorf("%w: %q (row %d)", ErrUnknownNode, toIDs[i], i)
		}
		g.AddEdge(src, dst)
	}

	logging.Debug("reduced graph", "groupBy", groupBy, "edgeRows", len(fromIDs), "groups", g.Len())
	return g, nil
}

// GroupLookup maps node ids to their group id, first row winning
func GroupLookup(nodes dataframe.DataFrame, nodeKey, groupBy string) (map[string]string, error) {
	keys, err := table.Column(nodes, nodeKey)
	if err != nil {
		return nil, err
	}
	groups, err := table.Column(nodes, groupBy)
	if err != nil {
		return nil, err
	}

	groupRecs := groups.Records()
	lookup := make(map[string]string, keys.Len())
	for i, key := range keys.Records() {
		if _, seen := lookup[key]; !seen {
			lookup[key] = groupRecs[i]
		}
	}
	return lookup, nil
}
