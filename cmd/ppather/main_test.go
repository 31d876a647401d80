package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/ppather/internal/config"
	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/geo/geotest"
	"github.com/udisondev/ppather/internal/kvstore"
	"github.com/udisondev/ppather/internal/pather"
	"github.com/udisondev/ppather/internal/pathgraph"
	"github.com/udisondev/ppather/internal/testutil"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}

func TestParseMapPoint(t *testing.T) {
	p, err := parseMapPoint(" 42.5, 60 ")
	require.NoError(t, err)
	assert.Equal(t, pather.MapPoint{X: 42.5, Y: 60}, p)

	for _, bad := range []string{"", "42", "a,1", "1,b"} {
		_, err := parseMapPoint(bad)
		assert.Error(t, err, bad)
	}
}

func TestSearchConfig(t *testing.T) {
	cfg := config.DefaultPather()
	cfg.Search.Strategy = "avoid_water"
	cfg.Search.StepLength = 4
	cfg.Geo.Clearance = 12

	sc, err := searchConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, pathgraph.StrategyAvoidWater, sc.Strategy)
	assert.Equal(t, 4.0, sc.Graph.StepLength)
	assert.Equal(t, 12.0, sc.Geo.Clearance)
	assert.Equal(t, cfg.Search.MaxExpansions, sc.MaxExpansions)

	cfg.Search.Strategy = "teleport"
	_, err = searchConfig(cfg)
	assert.Error(t, err)

	cfg.Search.Strategy = "astar"
	cfg.Geo.Radius = 0
	_, err = searchConfig(cfg)
	assert.Error(t, err)
}

// writeFixture lays out geometry, an area table and a config using the
// badger store, and returns the config path.
func writeFixture(t *testing.T, extra ...string) (cfgPath, badgerDir string) {
	t.Helper()
	dir := t.TempDir()

	origin := geo.ChunkCoord{X: 32, Y: 32}
	geom, err := geotest.NewWorld().FlatChunk(origin, 5, geo.SurfaceTerrain).ChunkAt(origin.X, origin.Y)
	require.NoError(t, err)
	mapDir := filepath.Join(dir, "geometry", "1")
	require.NoError(t, os.MkdirAll(mapDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mapDir, geo.ChunkFileName(origin.X, origin.Y)), geo.EncodeChunkGeometry(geom), 0o644))

	areas := filepath.Join(dir, "areas.yaml")
	require.NoError(t, os.WriteFile(areas, []byte(`areas:
  - ui_map_id: 100
    map_id: 1
    area_id: 10
    area_name: Valley
    loc_top: 500
    loc_bottom: 0
    loc_left: 500
    loc_right: 0
`), 0o644))

	badgerDir = filepath.Join(dir, "graphs")
	cfgPath = filepath.Join(dir, "ppather.yaml")
	require.NoError(t, os.WriteFile(cfgPath, fmt.Appendf(nil, `log_level: error
geometry_dir: %s
areas_file: %s
graph_store: badger
badger_dir: %s
%s
`, filepath.Join(dir, "geometry"), areas, badgerDir, strings.Join(extra, "\n")), 0o644))
	return cfgPath, badgerDir
}

func TestRouteCommand(t *testing.T) {
	cfgPath, badgerDir := writeFixture(t)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfgPath, "route", "--ui-map", "100", "--from", "80,80", "--to", "70,75", "--json"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	var resp pather.RouteResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
	assert.Equal(t, "found", resp.Status)
	assert.Equal(t, 1, resp.MapID)
	require.NotEmpty(t, resp.Points)
	assert.InDelta(t, 5, resp.Points[0].Z, 1e-6)
	assert.InDelta(t, 100, resp.Points[0].X, 1e-6)

	// the graph was saved on exit
	store, err := kvstore.Open(badgerDir)
	require.NoError(t, err)
	defer store.Close()
	blobs, err := store.LoadGraph(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, blobs)
}

func TestMigrateResetMap(t *testing.T) {
	cfgPath, badgerDir := writeFixture(t)
	ctx := context.Background()

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "route", "--ui-map", "100", "--from", "80,80", "--to", "70,75"})
	require.NoError(t, root.ExecuteContext(ctx))

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfgPath, "migrate", "reset-map", "--map", "1"})
	require.NoError(t, root.ExecuteContext(ctx))
	assert.Contains(t, out.String(), "graph for map 1 deleted")

	store, err := kvstore.Open(badgerDir)
	require.NoError(t, err)
	defer store.Close()
	blobs, err := store.LoadGraph(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestMigrateResetMapRequiresMap(t *testing.T) {
	cfgPath, _ := writeFixture(t)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "migrate", "reset-map"})
	assert.Error(t, root.ExecuteContext(context.Background()))
}

func TestRouteCommandUnknownArea(t *testing.T) {
	cfgPath, _ := writeFixture(t)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "route", "--ui-map", "7", "--from", "1,1", "--to", "2,2"})
	assert.Error(t, root.ExecuteContext(context.Background()))
}

func TestServeCommand(t *testing.T) {
	metricsAddr, apiAddr := testutil.FreeAddr(t), testutil.FreeAddr(t)
	cfgPath, _ := writeFixture(t,
		fmt.Sprintf("metrics_addr: %q", metricsAddr),
		fmt.Sprintf("overlay_addr: %q", apiAddr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := newRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "serve"})
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.NoError(t, testutil.WaitForTCPReady(apiAddr, 5*time.Second))
	require.NoError(t, testutil.WaitForTCPReady(metricsAddr, 5*time.Second))

	resp, err := http.Post("http://"+apiAddr+"/route", "application/json",
		strings.NewReader(`{"ui_map":100,"from":{"x":80,"y":80},"to":{"x":70,"y":75}}`))
	require.NoError(t, err)
	var route pather.RouteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&route))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "found", route.Status)

	resp, err = http.Get("http://" + metricsAddr + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `ppather_searches_total{status="found"}`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
