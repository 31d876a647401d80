// Package search owns the path graph of the active map and turns route
// searches into results callers can always inspect.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/ppather/internal/event"
	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/pathgraph"
)

// ErrNotInitialized is returned when the search is used without a graph.
var ErrNotInitialized = errors.New("search: path graph not initialized")

// State is the lifecycle state of a Search.
type State int

const (
	Uninitialized State = iota
	Initialized
	Cleared
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Cleared:
		return "cleared"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config parameterizes graph construction and searches.
type Config struct {
	Geo   geo.Params
	Graph pathgraph.Config
	// Strategy is the default for route requests that name none. FindRoute
	// always takes an explicit strategy; the facade and its callers apply this one.
	Strategy      pathgraph.Strategy
	CloseEnough   float64
	MaxExpansions int
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{
		Geo:           geo.DefaultParams(),
		Graph:         pathgraph.DefaultConfig(),
		Strategy:      pathgraph.StrategyAStar,
		CloseEnough:   3,
		MaxExpansions: 20000,
	}
}

// Search holds at most one path graph, bound to one map id.
// Not safe for concurrent use.
type Search struct {
	source geo.Source
	cfg    Config
	bus    *event.Bus

	state    State
	mapID    int
	chunks   *geo.ChunkStore
	resolver *geo.Resolver
	graph    *pathgraph.Graph
}

// New creates an uninitialized Search reading geometry from source.
func New(source geo.Source, cfg Config) *Search {
	return &Search{
		source: source,
		cfg:    cfg,
		bus:    event.NewBus(),
	}
}

// Events returns the bus this search publishes on.
func (s *Search) Events() *event.Bus { return s.bus }

// State returns the lifecycle state.
func (s *Search) State() State { return s.state }

// MapID returns the bound map id, if initialized.
func (s *Search) MapID() (int, bool) {
	return s.mapID, s.state == Initialized
}

// Graph returns the active graph or nil.
func (s *Search) Graph() *pathgraph.Graph { return s.graph }

// Resolver returns the active height resolver or nil.
func (s *Search) Resolver() *geo.Resolver { return s.resolver }

// CreatePathGraph discards any current graph and binds a fresh one to mapID.
func (s *Search) CreatePathGraph(mapID int) error {
	if s.state == Initialized {
		s.Clear()
	}

	provider, err := s.source.ForMap(mapID)
	if err != nil {
		return fmt.Errorf("creating path graph for map %d: %w", mapID, err)
	}

	chunks := geo.NewChunkStore(provider)
	chunks.OnChunkAdded(func(c geo.ChunkCoord, ch *geo.Chunk) {
		s.bus.Publish(event.Event{Type: event.ChunkAdded, MapID: mapID, Chunk: &c, Triangles: ch.TriangleCount()})
	})

	s.chunks = chunks
	s.resolver = geo.NewResolver(chunks, s.cfg.Geo)
	s.graph = pathgraph.New(mapID, s.resolver, s.cfg.Graph)
	s.mapID = mapID
	s.state = Initialized

	slog.Info("path graph created", "map", mapID)
	return nil
}

// Clear discards the graph and its chunk cache.
func (s *Search) Clear() {
	if s.state != Initialized {
		return
	}
	slog.Info("path graph cleared", "map", s.mapID, "spots", s.graph.Len(), "chunks", s.chunks.Len())
	s.chunks, s.resolver, s.graph = nil, nil, nil
	s.state = Cleared
}

// Reset discards any graph and returns the search to Uninitialized.
func (s *Search) Reset() {
	s.Clear()
	s.mapID = 0
	s.state = Uninitialized
}

// ResolveHeight returns the standable height at (x, y) on the bound map.
func (s *Search) ResolveHeight(x, y, zHint float64) (geo.Height, error) {
	if s.state != Initialized {
		return geo.Unresolved, ErrNotInitialized
	}
	return s.resolver.Resolve(x, y, zHint)
}

// Save persists the graph into store.
func (s *Search) Save(ctx context.Context, store pathgraph.Store) error {
	if s.state != Initialized {
		return ErrNotInitialized
	}
	return s.graph.Save(ctx, store)
}

// Load replaces the graph with the content of store. On a version mismatch
// or unreadable data the graph is left empty, to be rebuilt by searching.
func (s *Search) Load(ctx context.Context, store pathgraph.Store) error {
	if s.state != Initialized {
		return ErrNotInitialized
	}
	return s.graph.Restore(ctx, store)
}
