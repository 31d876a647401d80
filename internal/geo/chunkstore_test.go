package geo_test

import (
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/geo/geotest"
)

func TestChunkStoreCachesAndNotifiesOnce(t *testing.T) {
	w := geotest.NewWorld().FlatChunk(origin, 0, geo.SurfaceTerrain)
	s := geo.NewChunkStore(w)

	var added []geo.ChunkCoord
	s.OnChunkAdded(func(c geo.ChunkCoord, ch *geo.Chunk) {
		added = append(added, c)
		assert.Equal(t, 2, ch.TriangleCount())
	})

	first, err := s.Get(origin)
	require.NoError(t, err)
	second, err := s.ChunkAt(10, 10)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, w.Fetches(origin))
	assert.Equal(t, []geo.ChunkCoord{origin}, added)
	assert.Equal(t, 1, s.Len())
	_, cached := s.Cached(origin)
	assert.True(t, cached)
}

func TestChunkStoreFailedFetchNotCached(t *testing.T) {
	w := geotest.NewWorld().FlatChunk(origin, 0, geo.SurfaceTerrain).FailNext(origin, 1)
	s := geo.NewChunkStore(w)

	notified := 0
	s.OnChunkAdded(func(geo.ChunkCoord, *geo.Chunk) { notified++ })

	_, err := s.Get(origin)
	require.Error(t, err)
	assert.ErrorIs(t, err, geo.ErrGeometryIO)
	assert.ErrorIs(t, err, geotest.ErrInjected)
	assert.Zero(t, s.Len())
	assert.Zero(t, notified)

	_, ok := s.Cached(origin)
	assert.False(t, ok)

	ch, err := s.Get(origin)
	require.NoError(t, err)
	assert.Equal(t, origin, ch.Coord())
	assert.Equal(t, 2, w.Fetches(origin))
	assert.Equal(t, 1, notified)
}

func TestChunkStoreEmptyChunkIsCached(t *testing.T) {
	w := geotest.NewWorld()
	s := geo.NewChunkStore(w)

	ch, err := s.Get(origin)
	require.NoError(t, err)
	assert.Zero(t, ch.TriangleCount())

	_, err = s.Get(origin)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Fetches(origin))
}

func TestChunkStoreConcurrentGetFetchesOnce(t *testing.T) {
	w := geotest.NewWorld().FlatChunk(origin, 0, geo.SurfaceTerrain)
	s := geo.NewChunkStore(w)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Get(origin)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, w.Fetches(origin))
}

func TestChunkStoreRejectsInvalidGeometry(t *testing.T) {
	bad := geo.ProviderFunc(func(int, int) (*geo.ChunkGeometry, error) {
		return &geo.ChunkGeometry{
			Vertices:  []r3.Vector{{}},
			Triangles: []geo.Triangle{{V0: 0, V1: 1, V2: 2, Flags: geo.SurfaceTerrain}},
		}, nil
	})

	_, err := geo.NewChunkStore(bad).Get(origin)
	assert.ErrorIs(t, err, geo.ErrGeometryIO)
}
