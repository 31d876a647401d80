// Package pather is the entry point of the pathfinding engine: it maps UI-map
// coordinates to the world, keeps one search bound to the active map and
// relays its events.
package pather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/ppather/internal/event"
	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/metrics"
	"github.com/udisondev/ppather/internal/pathgraph"
	"github.com/udisondev/ppather/internal/search"
	"github.com/udisondev/ppather/internal/worldmap"
)

// Service serializes every operation behind one mutex, so callers on several
// goroutines see a single-writer engine.
type Service struct {
	areas  *worldmap.Table
	source geo.Source
	store  pathgraph.Store // nil disables persistence
	cfg    search.Config
	bus    *event.Bus

	mu     sync.Mutex
	active *search.Search
	unsub  func()
}

// New creates a Service. store may be nil.
func New(areas *worldmap.Table, source geo.Source, store pathgraph.Store, cfg search.Config) *Service {
	return &Service{
		areas:  areas,
		source: source,
		store:  store,
		cfg:    cfg,
		bus:    event.NewBus(),
	}
}

// Events returns the bus every search event is republished on. Handlers run
// with the service locked and must not call back into it.
func (s *Service) Events() *event.Bus { return s.bus }

// DefaultStrategy returns the configured strategy for requests that name none.
func (s *Service) DefaultStrategy() pathgraph.Strategy { return s.cfg.Strategy }

// Areas returns the reference table.
func (s *Service) Areas() *worldmap.Table { return s.areas }

// ActiveMapID returns the map the current search is bound to.
func (s *Service) ActiveMapID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return 0, false
	}
	return s.active.MapID()
}

// GraphLen returns the number of spots in the active graph.
func (s *Service) GraphLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return 0
	}
	return s.active.Graph().Len()
}

// ToWorld converts UI-map percentages to a world location with height z, and
// binds the search to the area's map. ok is false, with a zero location, when
// the UI map is unknown. err reports a failed map switch.
func (s *Service) ToWorld(ctx context.Context, uiMapID int, mapX, mapY, z float64) (loc geo.Location, ok bool, err error) {
	area, found := s.areas.Area(uiMapID)
	if !found {
		return geo.Location{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMap(ctx, area.MapID); err != nil {
		return geo.Location{}, false, err
	}

	x, y := area.ToWorld(mapX, mapY)
	return geo.Location{X: x, Y: y, Z: z}, true, nil
}

// ToMap converts world x, y to UI-map percentages of uiMapID.
func (s *Service) ToMap(uiMapID int, x, y float64) (mapX, mapY float64, ok bool) {
	area, found := s.areas.Area(uiMapID)
	if !found {
		return 0, 0, false
	}
	mapX, mapY = area.ToMap(x, y)
	return mapX, mapY, true
}

// ResolveArea finds the area of mapID containing world (x, y).
// See worldmap.Table.ResolveArea for the hint rules.
func (s *Service) ResolveArea(x, y float64, mapID, uiMapHint int) (worldmap.Area, error) {
	return s.areas.ResolveArea(x, y, mapID, uiMapHint)
}

// ResolveHeight returns the standable height at (x, y) on mapID.
func (s *Service) ResolveHeight(ctx context.Context, mapID int, x, y, zHint float64) (geo.Height, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMap(ctx, mapID); err != nil {
		return geo.Unresolved, err
	}
	return s.active.ResolveHeight(x, y, zHint)
}

// FindRoute searches a route between world locations on mapID.
func (s *Service) FindRoute(ctx context.Context, mapID int, from, to geo.Location, strategy pathgraph.Strategy, radius float64) (search.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureMap(ctx, mapID); err != nil {
		return search.Result{}, err
	}
	return s.active.FindRoute(ctx, from, to, strategy, radius)
}

// Close saves the active graph and releases the search.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release(ctx)
}

// ensureMap binds the active search to mapID, replacing the current one.
// Callers hold s.mu.
func (s *Service) ensureMap(ctx context.Context, mapID int) error {
	if s.active != nil {
		if id, ok := s.active.MapID(); ok && id == mapID {
			return nil
		}
	}

	from, hadMap := 0, false
	if s.active != nil {
		from, hadMap = s.active.MapID()
	}
	if err := s.release(ctx); err != nil {
		slog.Error("saving path graph before map switch", "map", from, "err", err)
	}

	next := search.New(s.source, s.cfg)
	if err := next.CreatePathGraph(mapID); err != nil {
		return fmt.Errorf("switching to map %d: %w", mapID, err)
	}
	if s.store != nil {
		if err := next.Load(ctx, s.store); err != nil {
			slog.Warn("stored path graph discarded, rebuilding", "map", mapID, "err", err)
		}
	}

	s.active = next
	s.unsub = next.Events().Subscribe(s.bus.Publish)
	metrics.MapTransitions.Inc()

	if hadMap {
		slog.Info("active map switched", "from", from, "to", mapID)
	} else {
		slog.Info("active map set", "map", mapID)
	}
	return nil
}

// release saves and destroys the active search. Callers hold s.mu.
func (s *Service) release(ctx context.Context) error {
	if s.active == nil {
		return nil
	}

	var err error
	if s.store != nil {
		err = s.active.Save(ctx, s.store)
	}
	s.unsub()
	s.active.Reset()
	s.active, s.unsub = nil, nil
	return err
}
