package model

// Document is the node-link form of a recommendation graph, the same
// shape networkx writes with node_link_data. It is the common on-disk
// and over-the-wire representation.
type Document struct {
	Directed   bool     `json:"directed"`
	Multigraph bool     `json:"multigraph"`
	Nodes      []Record `json:"nodes"`
	Links      []Link   `json:"links"`
}

// Record is one node: its "id" plus any number of attribute fields,
// flattened into a single JSON object
type Record map[string]any

// Link is one directed edge. Ids may be strings or numbers on disk.
type Link struct {
	Source any `json:"source"`
	Target any `json:"target"`
}

// IDKey is the reserved field holding a node's identifier
const IDKey = "id"

// NewDocument creates an empty directed document
func NewDocument(multigraph bool) *Document {
	return &Document{
		Directed:   true,
		Multigraph: multigraph,
		Nodes:      make([]Record, 0),
		Links:      make([]Link, 0),
	}
}

// AddNode appends a node record. The attrs map is copied.
func (d *Document) AddNode(id string, attrs map[string]any) {
	rec := make(Record, len(attrs)+1)
	for k, v := range attrs {
		rec[k] = v
	}
	rec[IDKey] = id
	d.Nodes = append(d.Nodes, rec)
}

// AddLink appends an edge
func (d *Document) AddLink(source, target string) {
	d.Links = append(d.Links, Link{Source: source, Target: target})
}
