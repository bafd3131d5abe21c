package output

import (
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"github.com/ritzau/recgraph/pkg/cycles"
	"github.com/ritzau/recgraph/pkg/graph"
	"github.com/ritzau/recgraph/pkg/rank"
)

// Summary describes a loaded graph
type Summary struct {
	Source     string         `json:"source"`
	Nodes      int            `json:"nodes"`
	Edges      int            `json:"edges"`
	Multigraph bool           `json:"multigraph"`
	Coverage   map[string]int `json:"coverage"` // attribute -> nodes that have it
}

// Summarize counts nodes, edges and per-attribute coverage
func Summarize(source string, g *graph.Graph) Summary {
	s := Summary{
		Source:     source,
		Nodes:      g.Len(),
		Edges:      g.EdgeCount(),
		Multigraph: g.IsMulti(),
		Coverage:   make(map[string]int),
	}
	for _, n := range g.Nodes() {
		for name := range n.Attrs() {
			s.Coverage[name]++
		}
	}
	return s
}

// PrintSummary prints a graph summary with attribute coverage
func PrintSummary(w io.Writer, s Summary) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Fprintln(w, "Recommendation Graph Summary")
	bold.Fprintln(w, "============================")
	fmt.Fprintf(w, "Source: %s\n", s.Source)
	kind := "directed graph"
	if s.Multigraph {
		kind = "directed multigraph"
	}
	fmt.Fprintf(w, "Type: %s\n", kind)
	fmt.Fprintf(w, "Nodes: %d\n", s.Nodes)
	fmt.Fprintf(w, "Edges: %d\n", s.Edges)

	if len(s.Coverage) == 0 {
		return
	}
	fmt.Fprintln(w)
	bold.Fprintln(w, "ATTRIBUTES:")
	names := make([]string, 0, len(s.Coverage))
	for name := range s.Coverage {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c := green
		if s.Coverage[name] < s.Nodes {
			c = yellow
		}
		c.Fprintf(w, "  %-20s %d/%d nodes\n", name, s.Coverage[name], s.Nodes)
	}
}

// PrintRanking prints a numbered ranking
func PrintRanking(w io.Writer, title string, scores []rank.Score) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, title)
	if len(scores) == 0 {
		fmt.Fprintln(w, "  (no nodes)")
		return
	}
	for i, s := range scores {
		fmt.Fprintf(w, "%3d. ", i+1)
		cyan.Fprintf(w, "%-24s", s.ID)
		fmt.Fprintf(w, " %.6f\n", s.Score)
	}
}

// PrintAttribute prints one attribute for every node, missing values dimmed
func PrintAttribute(w io.Writer, g *graph.Graph, attr string) {
	faint := color.New(color.Faint)
	for _, n := range g.Nodes() {
		v := n.Attr(attr)
		if v.IsMissing() {
			faint.Fprintf(w, "%-24s %s\n", n.ID, v)
			continue
		}
		fmt.Fprintf(w, "%-24s %s\n", n.ID, v)
	}
}

// PrintLoops prints recommendation loops, largest first
func PrintLoops(w io.Writer, loops []cycles.Loop) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)

	if len(loops) == 0 {
		color.New(color.FgGreen).Fprintln(w, "No recommendation loops")
		return
	}
	bold.Fprintf(w, "RECOMMENDATION LOOPS (%d):\n", len(loops))
	for i, loop := range loops {
		red.Fprintf(w, "  Loop %d", i+1)
		fmt.Fprintf(w, " (%d nodes)\n", len(loop.Nodes))
		for _, id := range loop.Nodes {
			fmt.Fprintf(w, "    %s\n", id)
		}
	}
}
