package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/ppather/internal/event"
	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/geo/geotest"
	"github.com/udisondev/ppather/internal/pathgraph"
	"github.com/udisondev/ppather/internal/search"
)

var origin = geo.ChunkCoord{X: 32, Y: 32}

func flatWorld() *geotest.World {
	return geotest.NewWorld().FlatChunk(origin, 0, geo.SurfaceTerrain)
}

func newSearch(t *testing.T, src geo.Source, mapID int) *search.Search {
	t.Helper()
	s := search.New(src, search.DefaultConfig())
	require.NoError(t, s.CreatePathGraph(mapID))
	return s
}

func TestLifecycle(t *testing.T) {
	s := search.New(flatWorld().Source(1, 2), search.DefaultConfig())
	assert.Equal(t, search.Uninitialized, s.State())

	_, err := s.FindRoute(context.Background(), geo.Location{}, geo.Location{}, pathgraph.StrategyAStar, 0)
	assert.ErrorIs(t, err, search.ErrNotInitialized)
	_, err = s.ResolveHeight(1, 1, 0)
	assert.ErrorIs(t, err, search.ErrNotInitialized)

	require.NoError(t, s.CreatePathGraph(1))
	assert.Equal(t, search.Initialized, s.State())
	id, ok := s.MapID()
	assert.True(t, ok)
	assert.Equal(t, 1, id)

	first := s.Graph()
	first.AddSpot(geo.Location{X: 5, Y: 5}, 0)

	require.NoError(t, s.CreatePathGraph(2))
	assert.NotSame(t, first, s.Graph(), "switching maps replaces the graph")
	assert.Zero(t, s.Graph().Len())
	assert.Equal(t, 2, s.Graph().MapID())

	s.Clear()
	assert.Equal(t, search.Cleared, s.State())
	assert.Nil(t, s.Graph())
	_, ok = s.MapID()
	assert.False(t, ok)
	_, err = s.FindRoute(context.Background(), geo.Location{}, geo.Location{}, pathgraph.StrategyAStar, 0)
	assert.ErrorIs(t, err, search.ErrNotInitialized)

	require.NoError(t, s.CreatePathGraph(1))
	assert.Equal(t, search.Initialized, s.State())
}

func TestReset(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *search.Search)
	}{
		{"from uninitialized", func(*search.Search) {}},
		{"from initialized", func(s *search.Search) {
			require.NoError(t, s.CreatePathGraph(1))
		}},
		{"from cleared", func(s *search.Search) {
			require.NoError(t, s.CreatePathGraph(1))
			s.Clear()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := search.New(flatWorld().Source(1), search.DefaultConfig())
			tt.setup(s)

			s.Reset()
			assert.Equal(t, search.Uninitialized, s.State())
			assert.Nil(t, s.Graph())
			assert.Nil(t, s.Resolver())
			_, ok := s.MapID()
			assert.False(t, ok)

			require.NoError(t, s.CreatePathGraph(1))
			assert.Equal(t, search.Initialized, s.State())
		})
	}
}

func TestCreatePathGraphUnknownMap(t *testing.T) {
	s := search.New(flatWorld().Source(1), search.DefaultConfig())
	assert.Error(t, s.CreatePathGraph(7))
	assert.Equal(t, search.Uninitialized, s.State())
}

func TestResolveHeight(t *testing.T) {
	s := newSearch(t, geotest.NewWorld().FlatChunk(origin, 4, geo.SurfaceTerrain).Source(), 0)

	h, err := s.ResolveHeight(100, 100, 0)
	require.NoError(t, err)
	z, ok := h.Z()
	require.True(t, ok)
	assert.InDelta(t, 4, z, 1e-9)
}

func TestFindRouteFound(t *testing.T) {
	s := newSearch(t, flatWorld().Source(), 1)

	var got []event.Type
	s.Events().Subscribe(func(e event.Event) { got = append(got, e.Type) })

	goal := geo.Location{X: 130, Y: 115}
	res, err := s.FindRoute(context.Background(), geo.Location{X: 100, Y: 100}, goal, pathgraph.StrategyAStar, 3)
	require.NoError(t, err)
	require.Equal(t, search.StatusFound, res.Status)
	assert.True(t, res.Found())
	assert.NoError(t, res.Err)
	last, _ := res.Path.Last()
	assert.LessOrEqual(t, last.Distance(goal), 3.0)

	assert.Equal(t, []event.Type{
		event.SearchBegan,
		event.ChunkAdded,
		event.SphereAdded,
		event.SphereAdded,
		event.LinesAdded,
		event.PathCreated,
	}, got)
}

func TestFindRouteNoPath(t *testing.T) {
	w := geotest.NewWorld().
		Quad(0, 0, 20, 20, 0, geo.SurfaceTerrain).
		Quad(60, 0, 80, 20, 0, geo.SurfaceTerrain)
	s := newSearch(t, w.Source(), 1)

	var labels []string
	s.Events().Subscribe(func(e event.Event) {
		if e.Type == event.SphereAdded {
			labels = append(labels, e.Label)
		}
		assert.NotEqual(t, event.PathCreated, e.Type)
	})

	res, err := s.FindRoute(context.Background(), geo.Location{X: 10, Y: 10}, geo.Location{X: 70, Y: 10}, pathgraph.StrategyAStar, 0)
	require.NoError(t, err)
	assert.Equal(t, search.StatusNoPath, res.Status)
	assert.True(t, res.Path.Empty())
	assert.NoError(t, res.Err, "plain exhaustion")
	require.True(t, res.HasClosest)
	assert.Greater(t, res.Closest.X, 15.0)
	assert.Equal(t, []string{"start", "goal", "closest"}, labels)
}

func TestFindRouteExpansionCap(t *testing.T) {
	cfg := search.DefaultConfig()
	cfg.MaxExpansions = 3
	s := search.New(flatWorld().Source(), cfg)
	require.NoError(t, s.CreatePathGraph(1))

	res, err := s.FindRoute(context.Background(), geo.Location{X: 10, Y: 10}, geo.Location{X: 400, Y: 10}, pathgraph.StrategyGreedy, 0)
	require.NoError(t, err)
	assert.Equal(t, search.StatusNoPath, res.Status)
	assert.Equal(t, 3, res.Expanded)
	assert.Error(t, res.Err)
}

func TestFindRouteUnresolvedStart(t *testing.T) {
	s := newSearch(t, flatWorld().Source(), 1)

	res, err := s.FindRoute(context.Background(), geo.Location{X: -10, Y: 10}, geo.Location{X: 40, Y: 10}, pathgraph.StrategyAStar, 0)
	require.NoError(t, err)
	assert.Equal(t, search.StatusNoPath, res.Status)
	assert.ErrorIs(t, res.Err, pathgraph.ErrUnresolved)
}

func TestFindRouteGeometryFailure(t *testing.T) {
	// the goal height probe and the start seed both hit the failing chunk
	w := flatWorld().FailNext(origin, 2)
	s := newSearch(t, w.Source(), 1)

	res, err := s.FindRoute(context.Background(), geo.Location{X: 10, Y: 10}, geo.Location{X: 40, Y: 10}, pathgraph.StrategyAStar, 0)
	require.NoError(t, err)
	assert.Equal(t, search.StatusNoPath, res.Status)
	assert.ErrorIs(t, res.Err, geo.ErrGeometryIO)

	res, err = s.FindRoute(context.Background(), geo.Location{X: 10, Y: 10}, geo.Location{X: 40, Y: 10}, pathgraph.StrategyAStar, 0)
	require.NoError(t, err)
	assert.Equal(t, search.StatusFound, res.Status, "failed chunk is retried")
}

func TestFindRouteCanceled(t *testing.T) {
	s := newSearch(t, flatWorld().Source(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.FindRoute(ctx, geo.Location{X: 10, Y: 10}, geo.Location{X: 40, Y: 10}, pathgraph.StrategyAStar, 0)
	require.NoError(t, err)
	assert.Equal(t, search.StatusCanceled, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestFindRouteFaultIsContained(t *testing.T) {
	src := geo.SourceFunc(func(int) (geo.Provider, error) {
		return geo.ProviderFunc(func(int, int) (*geo.ChunkGeometry, error) {
			panic("corrupt provider state")
		}), nil
	})
	s := newSearch(t, src, 1)

	res, err := s.FindRoute(context.Background(), geo.Location{X: 10, Y: 10}, geo.Location{X: 40, Y: 10}, pathgraph.StrategyAStar, 0)
	require.NoError(t, err)
	assert.Equal(t, search.StatusFault, res.Status)
	assert.Error(t, res.Err)
	assert.True(t, res.Path.Empty())
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := pathgraph.NewMemoryStore()

	s := newSearch(t, flatWorld().Source(), 1)
	res, err := s.FindRoute(ctx, geo.Location{X: 10, Y: 10}, geo.Location{X: 40, Y: 10}, pathgraph.StrategyAStar, 0)
	require.NoError(t, err)
	require.True(t, res.Found())
	spots := s.Graph().Len()
	require.NoError(t, s.Save(ctx, store))

	again := newSearch(t, flatWorld().Source(), 1)
	require.NoError(t, again.Load(ctx, store))
	assert.Equal(t, spots, again.Graph().Len())

	s.Clear()
	assert.ErrorIs(t, s.Save(ctx, store), search.ErrNotInitialized)
}
