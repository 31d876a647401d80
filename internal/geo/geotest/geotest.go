// Package geotest builds synthetic geometry providers for tests.
package geotest

import (
	"errors"
	"math"
	"sync"

	"github.com/golang/geo/r3"

	"github.com/udisondev/ppather/internal/geo"
)

// ErrInjected is returned by chunks configured to fail.
var ErrInjected = errors.New("injected fetch failure")

type quad struct {
	minX, minY, maxX, maxY float64
	z                      float64
	flags                  geo.SurfaceFlags
}

type wall struct {
	x1, y1, x2, y2 float64
	zLow, zHigh    float64
	flags          geo.SurfaceFlags
}

// World is a set of horizontal rectangles and vertical walls, served chunk by chunk.
type World struct {
	mu       sync.Mutex
	quads    []quad
	walls    []wall
	failures map[geo.ChunkCoord]int
	fetches  map[geo.ChunkCoord]int
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		failures: make(map[geo.ChunkCoord]int),
		fetches:  make(map[geo.ChunkCoord]int),
	}
}

// Quad adds a horizontal rectangle at height z.
func (w *World) Quad(minX, minY, maxX, maxY, z float64, flags geo.SurfaceFlags) *World {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.quads = append(w.quads, quad{
		minX: math.Min(minX, maxX), minY: math.Min(minY, maxY),
		maxX: math.Max(minX, maxX), maxY: math.Max(minY, maxY),
		z: z, flags: flags,
	})
	return w
}

// Wall adds a vertical rectangle standing on segment (x1,y1)-(x2,y2)
// between heights zLow and zHigh.
func (w *World) Wall(x1, y1, x2, y2, zLow, zHigh float64, flags geo.SurfaceFlags) *World {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.walls = append(w.walls, wall{x1: x1, y1: y1, x2: x2, y2: y2, zLow: zLow, zHigh: zHigh, flags: flags})
	return w
}

// FlatChunk covers a whole chunk with one surface at height z.
func (w *World) FlatChunk(c geo.ChunkCoord, z float64, flags geo.SurfaceFlags) *World {
	minX, minY, maxX, maxY := geo.ChunkBounds(c)
	return w.Quad(minX, minY, maxX, maxY, z, flags)
}

// FailNext makes the next n fetches of c fail.
func (w *World) FailNext(c geo.ChunkCoord, n int) *World {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[c] += n
	return w
}

// Fetches returns how many times c was fetched (including failures).
func (w *World) Fetches(c geo.ChunkCoord) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fetches[c]
}

// ChunkAt implements geo.Provider.
func (w *World) ChunkAt(gridX, gridY int) (*geo.ChunkGeometry, error) {
	c := geo.ChunkCoord{X: gridX, Y: gridY}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.fetches[c]++
	if w.failures[c] > 0 {
		w.failures[c]--
		return nil, ErrInjected
	}

	cminX, cminY, cmaxX, cmaxY := geo.ChunkBounds(c)
	g := &geo.ChunkGeometry{}
	for _, q := range w.quads {
		minX, minY := math.Max(q.minX, cminX), math.Max(q.minY, cminY)
		maxX, maxY := math.Min(q.maxX, cmaxX), math.Min(q.maxY, cmaxY)
		if minX >= maxX || minY >= maxY {
			continue
		}
		base := uint32(len(g.Vertices))
		g.Vertices = append(g.Vertices,
			r3.Vector{X: minX, Y: minY, Z: q.z},
			r3.Vector{X: maxX, Y: minY, Z: q.z},
			r3.Vector{X: maxX, Y: maxY, Z: q.z},
			r3.Vector{X: minX, Y: maxY, Z: q.z},
		)
		g.Triangles = append(g.Triangles,
			geo.Triangle{V0: base, V1: base + 1, V2: base + 2, Flags: q.flags},
			geo.Triangle{V0: base, V1: base + 2, V2: base + 3, Flags: q.flags},
		)
	}
	for _, wl := range w.walls {
		if math.Max(wl.x1, wl.x2) < cminX || math.Min(wl.x1, wl.x2) > cmaxX ||
			math.Max(wl.y1, wl.y2) < cminY || math.Min(wl.y1, wl.y2) > cmaxY {
			continue
		}
		base := uint32(len(g.Vertices))
		g.Vertices = append(g.Vertices,
			r3.Vector{X: wl.x1, Y: wl.y1, Z: wl.zLow},
			r3.Vector{X: wl.x2, Y: wl.y2, Z: wl.zLow},
			r3.Vector{X: wl.x2, Y: wl.y2, Z: wl.zHigh},
			r3.Vector{X: wl.x1, Y: wl.y1, Z: wl.zHigh},
		)
		g.Triangles = append(g.Triangles,
			geo.Triangle{V0: base, V1: base + 1, V2: base + 2, Flags: wl.flags},
			geo.Triangle{V0: base, V1: base + 2, V2: base + 3, Flags: wl.flags},
		)
	}
	return g, nil
}

// Source returns a geo.Source serving this world for every map id in maps
// (or all maps when none are given).
func (w *World) Source(maps ...int) geo.Source {
	return geo.SourceFunc(func(mapID int) (geo.Provider, error) {
		if len(maps) == 0 {
			return w, nil
		}
		for _, m := range maps {
			if m == mapID {
				return w, nil
			}
		}
		return nil, errors.New("no geometry for map")
	})
}

// Origin returns the world coordinate of the minimum corner of chunk c,
// convenient for placing test geometry inside one chunk.
func Origin(c geo.ChunkCoord) (x, y float64) {
	return geo.ChunkOrigin(c)
}
