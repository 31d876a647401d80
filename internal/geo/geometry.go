package geo

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"
)

// SurfaceFlags classifies a triangle (terrain, water, object, model).
type SurfaceFlags uint32

// Has reports whether any of the given flags are set.
func (f SurfaceFlags) Has(mask SurfaceFlags) bool {
	return f&mask != 0
}

func (f SurfaceFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, s := range []struct {
		flag SurfaceFlags
		name string
	}{
		{SurfaceTerrain, "terrain"},
		{SurfaceWater, "water"},
		{SurfaceObject, "object"},
		{SurfaceModel, "model"},
	} {
		if f&s.flag != 0 {
			parts = append(parts, s.name)
		}
	}
	return strings.Join(parts, "|")
}

// Triangle references three vertices of its chunk's vertex buffer.
type Triangle struct {
	V0, V1, V2 uint32
	Flags      SurfaceFlags
}

// ChunkGeometry is the raw triangle soup of one chunk as supplied by a Provider.
type ChunkGeometry struct {
	Vertices  []r3.Vector
	Triangles []Triangle
}

// Validate checks that every triangle references an existing vertex.
func (g *ChunkGeometry) Validate() error {
	n := uint32(len(g.Vertices))
	for i, t := range g.Triangles {
		if t.V0 >= n || t.V1 >= n || t.V2 >= n {
			return fmt.Errorf("triangle %d references vertex out of range (%d vertices)", i, n)
		}
	}
	return nil
}

// Corners returns the world positions of triangle i.
func (g *ChunkGeometry) Corners(i int) (a, b, c r3.Vector) {
	t := g.Triangles[i]
	return g.Vertices[t.V0], g.Vertices[t.V1], g.Vertices[t.V2]
}

// ParseChunkGeometry decodes a .tri chunk file.
// Layout (little-endian): uint32 nverts, nverts×{float32 x,y,z},
// uint32 ntris, ntris×{uint32 v0,v1,v2,flags}.
func ParseChunkGeometry(data []byte) (*ChunkGeometry, error) {
	offset := 0
	if len(data) < 4 {
		return nil, fmt.Errorf("parse chunk: insufficient data for vertex count (%d bytes)", len(data))
	}
	nverts := binary.LittleEndian.Uint32(data[offset:])
	offset += 4
	if nverts > maxChunkVertices {
		return nil, fmt.Errorf("parse chunk: vertex count %d exceeds limit", nverts)
	}
	need := int(nverts) * vertexRecordSize
	if offset+need > len(data) {
		return nil, fmt.Errorf("parse chunk: insufficient data for %d vertices at offset %d", nverts, offset)
	}

	g := &ChunkGeometry{Vertices: make([]r3.Vector, nverts)}
	for i := range g.Vertices {
		g.Vertices[i] = r3.Vector{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset+4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(data[offset+8:]))),
		}
		offset += vertexRecordSize
	}

	if offset+4 > len(data) {
		return nil, fmt.Errorf("parse chunk: insufficient data for triangle count at offset %d", offset)
	}
	ntris := binary.LittleEndian.Uint32(data[offset:])
	offset += 4
	if ntris > maxChunkTriangles {
		return nil, fmt.Errorf("parse chunk: triangle count %d exceeds limit", ntris)
	}
	need = int(ntris) * triangleRecordLen
	if offset+need > len(data) {
		return nil, fmt.Errorf("parse chunk: insufficient data for %d triangles at offset %d", ntris, offset)
	}

	g.Triangles = make([]Triangle, ntris)
	for i := range g.Triangles {
		g.Triangles[i] = Triangle{
			V0:    binary.LittleEndian.Uint32(data[offset:]),
			V1:    binary.LittleEndian.Uint32(data[offset+4:]),
			V2:    binary.LittleEndian.Uint32(data[offset+8:]),
			Flags: SurfaceFlags(binary.LittleEndian.Uint32(data[offset+12:])),
		}
		offset += triangleRecordLen
	}
	if offset != len(data) {
		return nil, fmt.Errorf("parse chunk: %d trailing bytes", len(data)-offset)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("parse chunk: %w", err)
	}
	return g, nil
}

// EncodeChunkGeometry is the inverse of ParseChunkGeometry.
func EncodeChunkGeometry(g *ChunkGeometry) []byte {
	buf := make([]byte, 0, 8+len(g.Vertices)*vertexRecordSize+len(g.Triangles)*triangleRecordLen)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(g.Vertices)))
	for _, v := range g.Vertices {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.X)))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.Y)))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v.Z)))
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(g.Triangles)))
	for _, t := range g.Triangles {
		buf = binary.LittleEndian.AppendUint32(buf, t.V0)
		buf = binary.LittleEndian.AppendUint32(buf, t.V1)
		buf = binary.LittleEndian.AppendUint32(buf, t.V2)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(t.Flags))
	}
	return buf
}
