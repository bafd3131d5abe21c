package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(newFlags(t), filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Graph != "graph.json" {
		t.Errorf("Expected default graph graph.json, got %s", cfg.Graph)
	}
	if cfg.Top != 10 {
		t.Errorf("Expected default top 10, got %d", cfg.Top)
	}
	if cfg.GroupBy != "channel_id" {
		t.Errorf("Expected default group-by channel_id, got %s", cfg.GroupBy)
	}
	if cfg.Damping != 0.85 {
		t.Errorf("Expected default damping 0.85, got %v", cfg.Damping)
	}
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recgraph.toml")
	content := "graph = \"videos.json\"\ntop = 5\nbins = 40\nagg = \"max\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RECGRAPH_TOP", "25")
	t.Setenv("RECGRAPH_BINS", "30")
	t.Setenv("RECGRAPH_GROUP_BY", "uploader")

	cfg, err := load(newFlags(t, "--top=3", "--attrs=views,likes", "-vv"), path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Graph != "videos.json" {
		t.Errorf("Config file should set graph, got %s", cfg.Graph)
	}
	if cfg.Agg != "max" {
		t.Errorf("Config file should set agg, got %s", cfg.Agg)
	}
	if cfg.Bins != 30 {
		t.Errorf("Env should override the file for bins, got %d", cfg.Bins)
	}
	if cfg.GroupBy != "uploader" {
		t.Errorf("Env should set group-by, got %s", cfg.GroupBy)
	}
	if cfg.Top != 3 {
		t.Errorf("Flags should override env for top, got %d", cfg.Top)
	}
	if len(cfg.Attrs) != 2 || cfg.Attrs[0] != "views" || cfg.Attrs[1] != "likes" {
		t.Errorf("Expected attrs [views likes], got %v", cfg.Attrs)
	}
	if cfg.VerboseCnt != 2 {
		t.Errorf("Expected verbose count 2, got %d", cfg.VerboseCnt)
	}
}
