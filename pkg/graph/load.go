package graph

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/ritzau/recgraph/pkg/logging"
	"github.com/ritzau/recgraph/pkg/model"
)

var (
	// ErrUnsupportedFormat is returned for graph files with an unknown extension
	ErrUnsupportedFormat = errors.New("unsupported graph format")
	// ErrMalformed is returned when a graph file decodes but is unusable
	ErrMalformed = errors.New("malformed graph file")
)

// Load reads a persisted graph. A missing file is not an error: a single
// diagnostic line naming the path is logged and (nil, nil) is returned.
//
// Supported formats by extension: .json (node-link document) and
// .dot/.gv (Graphviz).
func Load(path string) (*Graph, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logging.Warn("graph file not found, download it first", "path", path)
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph %s: %w", path, err)
	}

	var g *Graph
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		g, err = DecodeJSON(data)
	case ".dot", ".gv":
		g, err = DecodeDOT(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding graph %s: %w", path, err)
	}

	logging.Debug("loaded graph", "path", path, "nodes", g.Len(), "edges", g.EdgeCount())
	return g, nil
}

// DecodeJSON builds a graph from a node-link JSON document
func DecodeJSON(data []byte) (*Graph, error) {
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return FromDocument(&doc)
}

// FromDocument builds a graph from a node-link document
func FromDocument(doc *model.Document) (*Graph, error) {
	if !doc.Directed && (len(doc.Links) > 0) {
		return nil, fmt.Errorf("%w: undirected graphs are not supported", ErrMalformed)
	}

	g := newGraph(doc.Multigraph)
	for i, rec := range doc.Nodes {
		id, ok := idString(rec[model.IDKey])
		if !ok {
			return nil, fmt.Errorf("%w: node %d has no usable id", ErrMalformed, i)
		}
		node := g.AddNode(id)
		for k, raw := range rec {
			if k == model.IDKey {
				continue
			}
			node.SetAttr(k, ValueOf(raw))
		}
	}

	for i, link := range doc.Links {
		from, okFrom := idString(link.Source)
		to, okTo := idString(link.Target)
		if !okFrom || !okTo {
			return nil, fmt.Errorf("%w: link %d has no usable endpoints", ErrMalformed, i)
		}
		g.AddEdge(from, to)
	}

	return g, nil
}

// ToDocument converts g to its node-link form
func ToDocument(g *Graph) *model.Document {
	doc := model.NewDocument(g.multigraph)
	for _, n := range g.nodes {
		attrs := make(map[string]any, len(n.attrs))
		for k, v := range n.attrs {
			attrs[k] = v.Interface()
		}
		doc.AddNode(n.ID, attrs)
	}
	for _, e := range g.Edges() {
		doc.AddLink(e[0], e[1])
	}
	return doc
}

// SaveJSON writes g as a node-link JSON document
func SaveJSON(g *Graph, path string) error {
	data, err := json.MarshalIndent(ToDocument(g), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing graph %s: %w", path, err)
	}
	return nil
}

func idString(x any) (string, bool) {
	switch t := x.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}
