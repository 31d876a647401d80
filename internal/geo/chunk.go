package geo

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/udisondev/ppather/internal/spatial"
)

// Chunk is loaded, indexed geometry for one grid coordinate.
// Immutable after construction.
type Chunk struct {
	coord ChunkCoord
	geom  *ChunkGeometry
	tris  *spatial.Index[int32] // triangle indices by XY cell
}

// newChunk indexes every triangle into the cells its XY bounds overlap,
// clipped to the chunk rectangle.
func newChunk(coord ChunkCoord, geom *ChunkGeometry) *Chunk {
	if geom == nil {
		geom = &ChunkGeometry{}
	}
	ch := &Chunk{
		coord: coord,
		geom:  geom,
		tris:  spatial.New[int32](TriangleCellSize),
	}

	cminX, cminY, cmaxX, cmaxY := ChunkBounds(coord)
	for i := range geom.Triangles {
		a, b, c := geom.Corners(i)
		minX, minY, maxX, maxY := triangleBounds2D(a, b, c)
		minX, minY = math.Max(minX, cminX), math.Max(minY, cminY)
		maxX, maxY = math.Min(maxX, cmaxX), math.Min(maxY, cmaxY)
		if minX > maxX || minY > maxY {
			continue // entirely outside this chunk
		}
		lo := ch.tris.CellOf(minX, minY)
		hi := ch.tris.CellOf(maxX, maxY)
		for cx := lo.X; cx <= hi.X; cx++ {
			for cy := lo.Y; cy <= hi.Y; cy++ {
				ch.tris.AddToCell(spatial.Cell{X: cx, Y: cy}, int32(i))
			}
		}
	}
	return ch
}

// Coord returns the chunk's grid coordinate.
func (c *Chunk) Coord() ChunkCoord { return c.coord }

// Geometry returns the raw geometry. Callers must not modify it.
func (c *Chunk) Geometry() *ChunkGeometry { return c.geom }

// TriangleCount returns the number of triangles in the chunk.
func (c *Chunk) TriangleCount() int { return len(c.geom.Triangles) }

// highestHit returns the highest surface matching mask crossed by the vertical
// line through (x, y) within [low, high], and the flags of that triangle.
func (c *Chunk) highestHit(x, y, low, high float64, mask SurfaceFlags) (float64, SurfaceFlags, bool) {
	candidates, ok := c.tris.TryGet(x, y)
	if !ok {
		return 0, 0, false
	}

	best := math.Inf(-1)
	var bestFlags SurfaceFlags
	found := false
	for _, ti := range candidates {
		t := c.geom.Triangles[ti]
		if !t.Flags.Has(mask) {
			continue
		}
		a, b, cc := c.geom.Corners(int(ti))
		z, hit := verticalHit(x, y, low, high, a, b, cc)
		if !hit || z <= best {
			continue
		}
		best = z
		bestFlags = t.Flags
		found = true
	}
	return best, bestFlags, found
}

// segmentBlocked reports whether segment p0→p1 crosses any triangle matching mask.
func (c *Chunk) segmentBlocked(p0, p1 r3.Vector, mask SurfaceFlags) bool {
	var seen map[int32]struct{}
	blocked := false
	c.tris.ForEachInRegion(p0.X, p0.Y, p1.X, p1.Y, func(ti int32) bool {
		if seen == nil {
			seen = make(map[int32]struct{}, 8)
		}
		if _, dup := seen[ti]; dup {
			return true
		}
		seen[ti] = struct{}{}

		if !c.geom.Triangles[ti].Flags.Has(mask) {
			return true
		}
		a, b, cc := c.geom.Corners(int(ti))
		if _, hit := intersectSegment(p0, p1, a, b, cc); hit {
			blocked = true
			return false
		}
		return true
	})
	return blocked
}
