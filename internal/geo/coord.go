package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Location is a point in world space.
type Location struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Vec returns the location as an r3 vector.
func (l Location) Vec() r3.Vector {
	return r3.Vector{X: l.X, Y: l.Y, Z: l.Z}
}

// LocationOf converts an r3 vector to a Location.
func LocationOf(v r3.Vector) Location {
	return Location{X: v.X, Y: v.Y, Z: v.Z}
}

// Distance returns the 3D distance between two locations.
func (l Location) Distance(o Location) float64 {
	return l.Vec().Distance(o.Vec())
}

// Distance2D returns the horizontal distance between two locations.
func (l Location) Distance2D(o Location) float64 {
	return math.Hypot(l.X-o.X, l.Y-o.Y)
}

// Add returns l translated by (dx, dy, dz).
func (l Location) Add(dx, dy, dz float64) Location {
	return Location{X: l.X + dx, Y: l.Y + dy, Z: l.Z + dz}
}

func (l Location) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", l.X, l.Y, l.Z)
}

// ChunkCoord addresses one geometry chunk in the world grid.
type ChunkCoord struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("%d_%d", c.X, c.Y)
}

// ChunkOf returns the chunk containing world (x, y).
func ChunkOf(x, y float64) ChunkCoord {
	return ChunkCoord{
		X: int(math.Floor((x + GridOffset) / ChunkSize)),
		Y: int(math.Floor((y + GridOffset) / ChunkSize)),
	}
}

// ChunkOrigin returns the world coordinate of the chunk's minimum corner.
func ChunkOrigin(c ChunkCoord) (x, y float64) {
	return float64(c.X)*ChunkSize - GridOffset, float64(c.Y)*ChunkSize - GridOffset
}

// ChunkBounds returns the world rectangle [minX,maxX)×[minY,maxY) of the chunk.
func ChunkBounds(c ChunkCoord) (minX, minY, maxX, maxY float64) {
	minX, minY = ChunkOrigin(c)
	return minX, minY, minX + ChunkSize, minY + ChunkSize
}

// ChunksInRect returns every chunk overlapping the world rectangle, X-major.
func ChunksInRect(minX, minY, maxX, maxY float64) []ChunkCoord {
	lo := ChunkOf(math.Min(minX, maxX), math.Min(minY, maxY))
	hi := ChunkOf(math.Max(minX, maxX), math.Max(minY, maxY))
	out := make([]ChunkCoord, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1))
	for cx := lo.X; cx <= hi.X; cx++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			out = append(out, ChunkCoord{X: cx, Y: cy})
		}
	}
	return out
}
