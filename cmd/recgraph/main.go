package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ritzau/recgraph/pkg/aggregate"
	"github.com/ritzau/recgraph/pkg/annotate"
	"github.com/ritzau/recgraph/pkg/config"
	"github.com/ritzau/recgraph/pkg/cycles"
	"github.com/ritzau/recgraph/pkg/graph"
	"github.com/ritzau/recgraph/pkg/logging"
	"github.com/ritzau/recgraph/pkg/output"
	"github.com/ritzau/recgraph/pkg/plotting"
	"github.com/ritzau/recgraph/pkg/rank"
	"github.com/ritzau/recgraph/pkg/reduce"
	"github.com/ritzau/recgraph/pkg/table"
	"github.com/ritzau/recgraph/pkg/watcher"
	"github.com/ritzau/recgraph/pkg/web"
	"github.com/spf13/pflag"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

const usage = `Usage: recgraph [flags] <command>

Commands:
  summary     Node, edge and attribute counts
  top         Most popular nodes by in-degree centrality (or --pagerank)
  loops       Groups of nodes that recommend each other in a cycle
  aggregate   Aggregate --attr over predecessors/successors
  hist        Histogram of --attr written to --out
  scatter     Jittered scatter of --x against --y written to --out
  reduce      Build the group-level graph from --nodes and --edges
  serve       Serve the graph over HTTP on --port

Flags:
`

// errNoGraph means the loader already reported the missing file
var errNoGraph = errors.New("no graph loaded")

func main() {
	flags := pflag.NewFlagSet("recgraph", pflag.ExitOnError)
	config.RegisterFlags(flags)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLevel(logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt))

	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags.Arg(0), cfg); err != nil {
		if !errors.Is(err, errNoGraph) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cfg *config.Config) error {
	switch command {
	case "summary":
		g, err := loadGraph(cfg)
		if err != nil {
			return err
		}
		output.PrintSummary(os.Stdout, output.Summarize(cfg.Graph, g))
	case "top":
		g, err := loadGraph(cfg)
		if err != nil {
			return err
		}
		printTop(g, cfg)
	case "loops":
		g, err := loadGraph(cfg)
		if err != nil {
			return err
		}
		output.PrintLoops(os.Stdout, cycles.FindLoops(g))
	case "aggregate":
		g, err := loadGraph(cfg)
		if err != nil {
			return err
		}
		return runAggregate(g, cfg)
	case "hist":
		g, err := loadGraph(cfg)
		if err != nil {
			return err
		}
		return runHistogram(g, cfg)
	case "scatter":
		g, err := loadGraph(cfg)
		if err != nil {
			return err
		}
		return runScatter(g, cfg)
	case "reduce":
		return runReduce(cfg)
	case "serve":
		return runServe(ctx, cfg)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// loadGraph loads the graph and applies the configured annotations
func loadGraph(cfg *config.Config) (*graph.Graph, error) {
	start := time.Now()
	g, err := graph.Load(cfg.Graph)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errNoGraph
	}

	if cfg.Nodes != "" && len(cfg.Attrs) > 0 {
		df, err := table.LoadCSV(cfg.Nodes, cfg.Key)
		if err != nil {
			return nil, err
		}
		if err := annotate.FromTable(g, df, cfg.Key, cfg.Attrs); err != nil {
			return nil, err
		}
	}
	for _, attr := range cfg.Dates {
		if err := annotate.ConvertToDate(g, attr); err != nil {
			return nil, err
		}
	}

	logging.Info("graph ready", "path", cfg.Graph, "nodes", g.Len(), "edges", g.EdgeCount(),
		"durationMs", time.Since(start).Milliseconds())
	return g, nil
}

func printTop(g *graph.Graph, cfg *config.Config) {
	if cfg.PageRank {
		output.PrintRanking(os.Stdout, "Top nodes by PageRank", rank.TopByPageRank(g, cfg.Top, cfg.Damping))
		return
	}
	output.PrintRanking(os.Stdout, "Top nodes by in-degree centrality", rank.TopScoresByInDegree(g, cfg.Top))
}

func runAggregate(g *graph.Graph, cfg *config.Config) error {
	if cfg.Attr == "" {
		return errors.New("aggregate needs --attr")
	}
	fn, err := aggregate.Lookup(cfg.Agg)
	if err != nil {
		return err
	}

	prefix := "pred"
	if cfg.Direction == "out" {
		prefix = "succ"
	} else if cfg.Direction != "in" {
		return fmt.Errorf("direction must be in or out, got %q", cfg.Direction)
	}
	newAttr := fmt.Sprintf("%s_%s_%s", prefix, cfg.Agg, cfg.Attr)

	switch {
	case cfg.TimeDiff && prefix == "pred":
		newAttr += "_days"
		err = aggregate.PredecessorTimeDiff(g, cfg.Attr, fn, newAttr)
	case cfg.TimeDiff:
		newAttr += "_days"
		err = aggregate.SuccessorTimeDiff(g, cfg.Attr, fn, newAttr)
	case prefix == "pred":
		err = aggregate.Predecessors(g, cfg.Attr, fn, newAttr)
	default:
		err = aggregate.Successors(g, cfg.Attr, fn, newAttr)
	}
	if err != nil {
		return err
	}

	output.PrintAttribute(os.Stdout, g, newAttr)
	return nil
}

func runHistogram(g *graph.Graph, cfg *config.Config) error {
	if cfg.Attr == "" || cfg.Out == "" {
		return errors.New("hist needs --attr and --out")
	}
	p := plot.New()
	p.Title.Text = cfg.Attr
	p.X.Label.Text = cfg.Attr
	p.Y.Label.Text = "density"

	err := plotting.Histogram(p, g, cfg.Attr, plotting.HistOptions{
		LogScale: cfg.Log,
		Alpha:    cfg.Alpha,
		Label:    cfg.Label,
		Bins:     cfg.Bins,
	})
	if err != nil {
		return err
	}
	return savePlot(p, cfg)
}

func runScatter(g *graph.Graph, cfg *config.Config) error {
	if cfg.X == "" || cfg.Y == "" || cfg.Out == "" {
		return errors.New("scatter needs --x, --y and --out")
	}
	xs, ys, err := plotting.Pairs(g, cfg.X, cfg.Y)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	logging.Debug("scatter jitter", "seed", seed, "std", cfg.Jitter)

	p := plot.New()
	p.X.Label.Text = cfg.X
	p.Y.Label.Text = cfg.Y
	err = plotting.JitteredScatter(p, xs, ys, plotting.ScatterOptions{
		JitterStd: cfg.Jitter,
		Alpha:     cfg.Alpha,
		DotSize:   cfg.DotSize,
		Label:     cfg.Label,
		Src:       rand.NewPCG(seed, seed),
	})
	if err != nil {
		return err
	}
	return savePlot(p, cfg)
}

func savePlot(p *plot.Plot, cfg *config.Config) error {
	if err := plotting.Save(p, cfg.Out, vg.Length(cfg.Width)*vg.Inch, vg.Length(cfg.Height)*vg.Inch); err != nil {
		return err
	}
	logging.Info("plot written", "path", cfg.Out)
	return nil
}

func runReduce(cfg *config.Config) error {
	if cfg.Nodes == "" || cfg.Edges == "" {
		return errors.New("reduce needs --nodes and --edges")
	}
	opts := reduce.DefaultOptions()
	opts.NodeKey = cfg.Key

	nodes, err := table.LoadCSV(cfg.Nodes, opts.NodeKey, cfg.GroupBy)
	if err != nil {
		return err
	}
	edges, err := table.LoadCSV(cfg.Edges, opts.From, opts.To)
	if err != nil {
		return err
	}

	g, err := reduce.ToGroups(nodes, edges, cfg.GroupBy, opts)
	if err != nil {
		return err
	}

	output.PrintSummary(os.Stdout, output.Summarize(cfg.Edges, g))
	fmt.Println()
	printTop(g, cfg)

	if cfg.Out != "" {
		if err := graph.SaveJSON(g, cfg.Out); err != nil {
			return err
		}
		logging.Info("reduced graph written", "path", cfg.Out)
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	g, err := loadGraph(cfg)
	if err != nil {
		return err
	}

	server := web.NewServer()
	server.SetDamping(cfg.Damping)
	server.SetGraph(cfg.Graph, g)

	if cfg.Watch {
		if err := watchGraph(ctx, cfg, server); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.Port) }()

	select {
	case <-ctx.Done():
		logging.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func watchGraph(ctx context.Context, cfg *config.Config, server *web.Server) error {
	fw, err := watcher.NewFileWatcher(cfg.Graph)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}
	debouncer := watcher.NewDebouncer(fw.Events(), 300*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	go func() {
		for range debouncer.Output() {
			g, err := loadGraph(cfg)
			if err != nil {
				logging.Warn("reload failed, keeping previous graph", "error", err)
				server.ReportReloadFailure(cfg.Graph, err)
				continue
			}
			server.SetGraph(cfg.Graph, g)
			logging.Info("graph reloaded", "path", cfg.Graph)
		}
	}()
	return nil
}
