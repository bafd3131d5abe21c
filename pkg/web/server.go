package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ritzau/recgraph/pkg/annotate"
	"github.com/ritzau/recgraph/pkg/cycles"
	"github.com/ritzau/recgraph/pkg/graph"
	"github.com/ritzau/recgraph/pkg/logging"
	"github.com/ritzau/recgraph/pkg/output"
	"github.com/ritzau/recgraph/pkg/plotting"
	"github.com/ritzau/recgraph/pkg/pubsub"
	"github.com/ritzau/recgraph/pkg/rank"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// NodeData is the JSON view of one node
type NodeData struct {
	ID           string         `json:"id"`
	Attributes   map[string]any `json:"attributes"`
	InDegree     int            `json:"inDegree"`
	Predecessors []string       `json:"predecessors"`
	Successors   []string       `json:"successors"`
}

// plotCacheSize bounds the number of rendered histograms kept in memory
const plotCacheSize = 64

// Server is a read-only HTTP view of the current graph. The graph is
// replaced wholesale by SetGraph and never mutated while published.
type Server struct {
	router    *mux.Router
	http      *http.Server
	publisher *pubsub.SSEPublisher
	plots     *lru.Cache[string, []byte]
	mu        sync.RWMutex
	graph     *graph.Graph
	source    string
	version   int // bumped by SetGraph, part of every plot cache key
	damping   float64
}

// NewServer creates a new web server
func NewServer() *Server {
	plots, _ := lru.New[string, []byte](plotCacheSize) // only fails for size <= 0
	s := &Server{
		router:    mux.NewRouter(),
		publisher: pubsub.NewSSEPublisher(),
		plots:     plots,
		damping:   0.85,
	}
	// Late subscribers get the current graph's summary
	s.publisher.ConfigureTopic(pubsub.TopicGraph, pubsub.TopicConfig{BufferSize: 1})
	s.setupRoutes()
	s.http = &http.Server{Handler: s.Handler()}
	return s
}

// SetGraph publishes a new graph snapshot and notifies event subscribers
func (s *Server) SetGraph(source string, g *graph.Graph) {
	s.mu.Lock()
	s.graph = g
	s.source = source
	s.version++
	s.mu.Unlock()

	if err := s.publisher.Publish(pubsub.TopicGraph, pubsub.EventLoaded, output.Summarize(source, g)); err != nil {
		logging.Warn("publishing graph event", "error", err)
	}
}

// ReportReloadFailure tells event subscribers that the graph at path could
// not be reloaded. The previous snapshot stays published.
func (s *Server) ReportReloadFailure(path string, reloadErr error) {
	failure := pubsub.ReloadFailure{Path: path, Error: reloadErr.Error()}
	if err := s.publisher.Publish(pubsub.TopicGraph, pubsub.EventReloadFailed, failure); err != nil {
		logging.Warn("publishing graph event", "error", err)
	}
}


// SetDamping sets the PageRank damping factor used by /api/top
func (s *Server) SetDamping(d float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.damping = d
}

func (s *Server) snapshot() (*graph.Graph, string, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph, s.source, s.damping
}

func (s *Server) graphVersion() (*graph.Graph, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph, s.version
}

// Handler returns the routed handler wrapped in request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	s.router.HandleFunc("/api/top", s.handleTop).Methods("GET")
	s.router.HandleFunc("/api/nodes/{id}", s.handleNode).Methods("GET")
	s.router.HandleFunc("/api/attributes/{name}", s.handleAttribute).Methods("GET")
	s.router.HandleFunc("/plot/histogram.png", s.handleHistogram).Methods("GET")
	s.router.HandleFunc("/api/loops", s.handleLoops).Methods("GET")
	s.router.HandleFunc("/api/events", s.handleEvents).Methods("GET")
}

func (s *Server) handleLoops(w http.ResponseWriter, r *http.Request) {
	g, _, _ := s.snapshot()
	if g == nil {
		http.Error(w, "Graph not loaded", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, cycles.FindLoops(g))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sub, err := s.publisher.Subscribe(r.Context(), pubsub.TopicGraph)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Initial comment establishes the stream before the first event
	fmt.Fprintf(w, ": connected\n\n")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.DebugContext(r.Context(), "event stream closed", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	g, source, _ := s.snapshot()
	if g == nil {
		http.Error(w, "Graph not loaded", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, output.Summarize(source, g))
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	g, _, damping := s.snapshot()
	if g == nil {
		http.Error(w, "Graph not loaded", http.StatusServiceUnavailable)
		return
	}

	k := 10
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "k must be a non-negative integer", http.StatusBadRequest)
			return
		}
		k = n
	}

	var scores []rank.Score
	switch method := r.URL.Query().Get("method"); method {
	case "", "in-degree":
		scores = rank.TopScoresByInDegree(g, k)
	case "pagerank":
		scores = rank.TopByPageRank(g, k, damping)
	default:
		http.Error(w, fmt.Sprintf("unknown method %q", method), http.StatusBadRequest)
		return
	}
	if scores == nil {
		scores = []rank.Score{}
	}
	writeJSON(w, scores)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	g, _, _ := s.snapshot()
	if g == nil {
		http.Error(w, "Graph not loaded", http.StatusServiceUnavailable)
		return
	}

	id := mux.Vars(r)["id"]
	node, ok := g.Node(id)
	if !ok {
		http.Error(w, fmt.Sprintf("node %q not found", id), http.StatusNotFound)
		return
	}

	data := NodeData{
		ID:           node.ID,
		Attributes:   make(map[string]any),
		InDegree:     g.InDegree(id),
		Predecessors: nodeIDs(g.Predecessors(id)),
		Successors:   nodeIDs(g.Successors(id)),
	}
	for k, v := range node.Attrs() {
		data.Attributes[k] = v.Interface()
	}
	writeJSON(w, data)
}

func (s *Server) handleAttribute(w http.ResponseWriter, r *http.Request) {
	g, _, _ := s.snapshot()
	if g == nil {
		http.Error(w, "Graph not loaded", http.StatusServiceUnavailable)
		return
	}

	values := annotate.Values(g, mux.Vars(r)["name"])
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v.Interface()
	}
	writeJSON(w, out)
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	g, version := s.graphVersion()
	if g == nil {
		http.Error(w, "Graph not loaded", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	attr := q.Get("attr")
	if attr == "" {
		http.Error(w, "attr is required", http.StatusBadRequest)
		return
	}
	opts := plotting.HistOptions{LogScale: q.Get("log") == "true", Label: q.Get("label")}
	if raw := q.Get("bins"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "bins must be a positive integer", http.StatusBadRequest)
			return
		}
		opts.Bins = n
	}

	key := fmt.Sprintf("%d|%s|%t|%d|%s", version, attr, opts.LogScale, opts.Bins, opts.Label)
	if png, ok := s.plots.Get(key); ok {
		writePNG(w, r, png, "hit")
		return
	}

	p := plot.New()
	p.Title.Text = attr
	if err := plotting.Histogram(p, g, attr, opts); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, plotting.ErrNoData) || errors.Is(err, plotting.ErrNonPositive) ||
			errors.Is(err, annotate.ErrNotNumeric) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.plots.Add(key, buf.Bytes())
	writePNG(w, r, buf.Bytes(), "miss")
}

func writePNG(w http.ResponseWriter, r *http.Request, png []byte, cache string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Plot-Cache", cache)
	if _, err := w.Write(png); err != nil {
		logging.DebugContext(r.Context(), "writing histogram", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encoding response", "error", err)
	}
}

func nodeIDs(nodes []*graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

// Start starts the web server on the specified port. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown
func (s *Server) Serve(l net.Listener) error {
	return s.http.Serve(l)
}

// Shutdown ends all event streams, then stops the HTTP server once the
// remaining requests finish or ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.publisher.Close(); err != nil {
		return err
	}
	return s.http.Shutdown(ctx)
}
