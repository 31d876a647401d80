package geo

// World grid.
const (
	// ChunkSize is the edge length of one geometry chunk in world units.
	ChunkSize = 1600.0 / 3.0 // 533.333…
	// GridOffset shifts world coordinates so chunk indices are non-negative
	// for the playable range.
	GridOffset = 32 * ChunkSize
	// GridChunks is the number of chunks per axis covered by the offset grid.
	GridChunks = 64

	// TriangleCellSize is the cell size of the per-chunk triangle index.
	TriangleCellSize = ChunkSize / 64
)

// Surface classification flags carried by every triangle.
const (
	SurfaceTerrain SurfaceFlags = 1 << iota
	SurfaceWater
	SurfaceObject
	SurfaceModel

	SurfaceSolid = SurfaceTerrain | SurfaceObject | SurfaceModel
	SurfaceAny   = SurfaceSolid | SurfaceWater
)

// Default probe and body parameters (world units).
const (
	DefaultClearance       = 10.0
	DefaultCharacterHeight = 2.0
	DefaultRadius          = 0.5
	DefaultMaxStepUp       = 1.0
	DefaultStepSample      = 1.0
	DefaultLargeProbe      = 10000.0
)

// Binary chunk file format.
const (
	chunkFileExt      = ".tri"
	vertexRecordSize  = 12 // 3×float32
	triangleRecordLen = 16 // 4×uint32
	maxChunkVertices  = 1 << 22
	maxChunkTriangles = 1 << 22
)
