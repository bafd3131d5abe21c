package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional config file read from the working directory
const FileName = "recgraph.toml"

// EnvPrefix prefixes environment overrides (e.g. RECGRAPH_TOP=20)
const EnvPrefix = "RECGRAPH_"

// Config holds all configuration for the application
type Config struct {
	// Inputs
	Graph   string   `koanf:"graph"`
	Nodes   string   `koanf:"nodes"`
	Edges   string   `koanf:"edges"`
	Key     string   `koanf:"key"`
	Attrs   []string `koanf:"attrs"`
	Dates   []string `koanf:"dates"`
	GroupBy string   `koanf:"group-by"`

	// Queries
	Top       int     `koanf:"top"`
	PageRank  bool    `koanf:"pagerank"`
	Damping   float64 `koanf:"damping"`
	Attr      string  `koanf:"attr"`
	Agg       string  `koanf:"agg"`
	Direction string  `koanf:"direction"`
	TimeDiff  bool    `koanf:"time-diff"`

	// Plots
	Out     string  `koanf:"out"`
	Width   float64 `koanf:"width"`
	Height  float64 `koanf:"height"`
	Bins    int     `koanf:"bins"`
	Log     bool    `koanf:"log"`
	Alpha   float64 `koanf:"alpha"`
	Label   string  `koanf:"label"`
	X       string  `koanf:"x"`
	Y       string  `koanf:"y"`
	Jitter  float64 `koanf:"jitter"`
	DotSize float64 `koanf:"dot-size"`
	Seed    uint64  `koanf:"seed"`

	// Server
	Port  int  `koanf:"port"`
	Watch bool `koanf:"watch"`

	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
}

// Defaults are the lowest-priority configuration layer
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"graph":     "graph.json",
		"key":       "video_id",
		"group-by":  "channel_id",
		"top":       10,
		"pagerank":  false,
		"damping":   0.85,
		"agg":       "mean",
		"direction": "in",
		"time-diff": false,
		"width":     6.0,
		"height":    4.0,
		"bins":      20,
		"log":       false,
		"alpha":     1.0,
		"jitter":    0.0,
		"dot-size":  2.0,
		"seed":      0,
		"port":      8080,
		"watch":     false,
		"verbosity": "",
		"verbose":   0,
	}
}

// RegisterFlags declares every command-line flag on f
func RegisterFlags(f *pflag.FlagSet) {
	f.String("graph", "graph.json", "Path to the persisted graph (.json node-link or .dot)")
	f.String("nodes", "", "CSV table of node attributes")
	f.String("edges", "", "CSV table of edges (reduce)")
	f.String("key", "video_id", "Node id column in the node table")
	f.StringSlice("attrs", nil, "Node table columns to copy onto the graph")
	f.StringSlice("dates", nil, "Attributes to convert from YYYY-MM-DD to dates")
	f.String("group-by", "channel_id", "Node table column to group by (reduce)")
	f.Int("top", 10, "Number of nodes to rank")
	f.Bool("pagerank", false, "Rank by PageRank instead of in-degree centrality")
	f.Float64("damping", 0.85, "PageRank damping factor")
	f.String("attr", "", "Attribute to aggregate or plot")
	f.String("agg", "mean", "Aggregation: count, first, max, mean, median, min, sum")
	f.String("direction", "in", "Aggregate over predecessors (in) or successors (out)")
	f.Bool("time-diff", false, "Aggregate day differences of a date attribute")
	f.String("out", "", "Output file (plot image or reduced graph JSON)")
	f.Float64("width", 6, "Plot width in inches")
	f.Float64("height", 4, "Plot height in inches")
	f.Int("bins", 20, "Histogram bins")
	f.Bool("log", false, "Logarithmic histogram")
	f.Float64("alpha", 1, "Fill opacity")
	f.String("label", "", "Legend label")
	f.String("x", "", "Scatter X attribute")
	f.String("y", "", "Scatter Y attribute")
	f.Float64("jitter", 0, "Scatter jitter standard deviation")
	f.Float64("dot-size", 2, "Scatter dot radius in points")
	f.Uint64("seed", 0, "Jitter seed (0 picks a random seed)")
	f.Int("port", 8080, "Port for the web server")
	f.Bool("watch", false, "Reload the graph when the file changes (serve)")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return load(f, FileName)
}

func load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider(path), toml.Parser())

	// 3. Environment Variables: RECGRAPH_GROUP_BY -> group-by
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
