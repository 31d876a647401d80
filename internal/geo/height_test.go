package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/geo/geotest"
)

var origin = geo.ChunkCoord{X: 32, Y: 32} // world [0, 533.33)

func newResolver(w *geotest.World) *geo.Resolver {
	return geo.NewResolver(geo.NewChunkStore(w), geo.DefaultParams())
}

func requireHeight(t *testing.T, r *geo.Resolver, x, y, zHint float64) geo.Height {
	t.Helper()
	h, err := r.Resolve(x, y, zHint)
	require.NoError(t, err)
	return h
}

func TestResolveFlatTerrain(t *testing.T) {
	r := newResolver(geotest.NewWorld().FlatChunk(origin, 42.5, geo.SurfaceTerrain))

	for _, p := range [][2]float64{{0.5, 0.5}, {100, 250}, {266.6, 266.6}, {533, 1}, {400.25, 12.75}} {
		for _, hint := range []float64{0, 40, 45} {
			h := requireHeight(t, r, p[0], p[1], hint)
			z, ok := h.Z()
			require.True(t, ok, "point %v hint %v", p, hint)
			assert.InDelta(t, 42.5, z, 1e-6)
			assert.Equal(t, geo.SurfaceTerrain, h.Surface())
		}
	}
}

func TestResolveWaterPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		terrain     *float64
		water       float64
		wantZ       float64
		wantSurface geo.SurfaceFlags
	}{
		{"water above terrain", ptr(5), 10, 10, geo.SurfaceWater},
		{"water below terrain", ptr(5), 3, 5, geo.SurfaceTerrain},
		{"water without terrain", nil, 7, 7, geo.SurfaceWater},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := geotest.NewWorld().Quad(0, 0, 100, 100, tt.water, geo.SurfaceWater)
			if tt.terrain != nil {
				w.Quad(0, 0, 100, 100, *tt.terrain, geo.SurfaceTerrain)
			}
			h := requireHeight(t, newResolver(w), 50, 50, 0)
			z, ok := h.Z()
			require.True(t, ok)
			assert.InDelta(t, tt.wantZ, z, 1e-6)
			assert.Equal(t, tt.wantSurface, h.Surface())
		})
	}
}

func TestResolveModelPrecedence(t *testing.T) {
	half := geo.DefaultClearance / 2

	tests := []struct {
		name        string
		modelZ      float64
		flags       geo.SurfaceFlags
		wantZ       float64
		wantSurface geo.SurfaceFlags
	}{
		{"model close above terrain", 4, geo.SurfaceModel, 4, geo.SurfaceModel},
		{"object close above terrain", 2, geo.SurfaceObject, 2, geo.SurfaceObject},
		{"model exactly at half clearance", half, geo.SurfaceModel, half, geo.SurfaceModel},
		{"model beyond half clearance is noise", half + 2, geo.SurfaceModel, 0, geo.SurfaceTerrain},
		{"model below terrain within threshold", -3, geo.SurfaceModel, -3, geo.SurfaceModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := geotest.NewWorld().
				Quad(0, 0, 100, 100, 0, geo.SurfaceTerrain).
				Quad(20, 20, 80, 80, tt.modelZ, tt.flags)
			h := requireHeight(t, newResolver(w), 50, 50, 0)
			z, ok := h.Z()
			require.True(t, ok)
			assert.InDelta(t, tt.wantZ, z, 1e-6)
			assert.Equal(t, tt.wantSurface, h.Surface())
		})
	}
}

func TestResolveModelWithoutTerrain(t *testing.T) {
	w := geotest.NewWorld().Quad(0, 0, 10, 10, 120, geo.SurfaceModel)
	h := requireHeight(t, newResolver(w), 5, 5, 0)
	z, ok := h.Z()
	require.True(t, ok)
	assert.InDelta(t, 120.0, z, 1e-6)
}

func TestResolveBridgeOverTerrainStrip(t *testing.T) {
	strip := func(bridgeZ float64) *geotest.World {
		w := geotest.NewWorld()
		for cx := 32; cx <= 34; cx++ {
			w.FlatChunk(geo.ChunkCoord{X: cx, Y: 32}, 0, geo.SurfaceTerrain)
		}
		bx, by := geotest.Origin(geo.ChunkCoord{X: 33, Y: 32})
		return w.Quad(bx+100, by+200, bx+400, by+220, bridgeZ, geo.SurfaceModel)
	}
	bx, by := geotest.Origin(geo.ChunkCoord{X: 33, Y: 32})
	onBridge := [2]float64{bx + 250, by + 210}
	besideBridge := [2]float64{bx + 250, by + 300}

	r := newResolver(strip(5))

	h := requireHeight(t, r, onBridge[0], onBridge[1], 5)
	z, ok := h.Z()
	require.True(t, ok)
	assert.InDelta(t, 5.0, z, 1e-6, "bridge within half clearance of terrain is walkable")
	assert.Equal(t, geo.SurfaceModel, h.Surface())

	h = requireHeight(t, r, besideBridge[0], besideBridge[1], 5)
	z, ok = h.Z()
	require.True(t, ok)
	assert.InDelta(t, 0.0, z, 1e-6)

	high := newResolver(strip(8))
	h = requireHeight(t, high, onBridge[0], onBridge[1], 0)
	z, ok = h.Z()
	require.True(t, ok)
	assert.InDelta(t, 0.0, z, 1e-6, "bridge beyond half clearance is treated as noise")
	assert.Equal(t, geo.SurfaceTerrain, h.Surface())

	// other chunks of the strip resolve too
	h = requireHeight(t, r, 10, 10, 0)
	assert.True(t, h.Resolved())
	h = requireHeight(t, r, 2*geo.ChunkSize+10, 10, 0)
	assert.True(t, h.Resolved())
}

func TestResolveSmallWindowFallsBackToLarge(t *testing.T) {
	r := newResolver(geotest.NewWorld().FlatChunk(origin, 100, geo.SurfaceTerrain))

	h := requireHeight(t, r, 50, 50, 30) // small window [20, 40] misses
	z, ok := h.Z()
	require.True(t, ok)
	assert.InDelta(t, 100.0, z, 1e-6)
}

func TestResolveSmallWindowWithoutTerrainRetriesLarge(t *testing.T) {
	tests := []struct {
		name        string
		modelZ      float64
		hint        float64
		wantZ       float64
		wantSurface geo.SurfaceFlags
	}{
		// only the model is inside [40, 60]; terrain at 0 is found by the large window
		{"model far above terrain", 50, 50, 0, geo.SurfaceTerrain},
		// terrain at 0 is inside [-7, 13], the model is close enough to win
		{"model near terrain", 3, 3, 3, geo.SurfaceModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := geotest.NewWorld().
				Quad(0, 0, 100, 100, 0, geo.SurfaceTerrain).
				Quad(20, 20, 80, 80, tt.modelZ, geo.SurfaceModel)
			r := newResolver(w)

			h := requireHeight(t, r, 50, 50, tt.hint)
			z, ok := h.Z()
			require.True(t, ok)
			assert.InDelta(t, tt.wantZ, z, 1e-6)
			assert.Equal(t, tt.wantSurface, h.Surface())
			assert.Equal(t, requireHeight(t, r, 50, 50, 0), h, "same answer as a query without a hint")
		})
	}

	// no terrain anywhere: the large window returns the model
	r := newResolver(geotest.NewWorld().Quad(0, 0, 10, 10, 120, geo.SurfaceModel))
	h := requireHeight(t, r, 5, 5, 120)
	z, ok := h.Z()
	require.True(t, ok)
	assert.InDelta(t, 120.0, z, 1e-6)
	assert.Equal(t, geo.SurfaceModel, h.Surface())
}

func TestResolveUnresolved(t *testing.T) {
	r := newResolver(geotest.NewWorld())

	h := requireHeight(t, r, 50, 50, 0)
	assert.False(t, h.Resolved())
	_, ok := h.Z()
	assert.False(t, ok)
	assert.Equal(t, geo.Unresolved, h)
	assert.Equal(t, "unresolved", h.String())
}

func TestResolveGeometryIOFailureRetries(t *testing.T) {
	w := geotest.NewWorld().FlatChunk(origin, 1, geo.SurfaceTerrain).FailNext(origin, 1)
	r := newResolver(w)

	h, err := r.Resolve(50, 50, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, geo.ErrGeometryIO)
	assert.False(t, h.Resolved())

	h = requireHeight(t, r, 50, 50, 0)
	assert.True(t, h.Resolved())
	assert.Equal(t, 2, w.Fetches(origin))
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, geo.DefaultParams().Validate())

	p := geo.DefaultParams()
	p.Radius = 0
	assert.Error(t, p.Validate())
}

func ptr(v float64) *float64 { return &v }
