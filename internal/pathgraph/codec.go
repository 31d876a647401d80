package pathgraph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/udisondev/ppather/internal/geo"
)

// FormatVersion tags every persisted chunk record. Records with another
// version are never decoded. Version 2 stores links as arrays.
const FormatVersion = 2

// ErrVersionMismatch is returned when persisted data carries another format version.
var ErrVersionMismatch = errors.New("path graph format version mismatch")

// ChunkBlob is the persisted form of the spots inside one geometry chunk.
type ChunkBlob struct {
	Chunk   geo.ChunkCoord
	Version int
	Data    []byte
}

type chunkRecord struct {
	Version int            `msgpack:"v"`
	MapID   int            `msgpack:"map"`
	Chunk   geo.ChunkCoord `msgpack:"chunk"`
	Spots   []spotRecord   `msgpack:"spots"`
}

type spotRecord struct {
	_msgpack struct{}     `msgpack:",as_array"`
	Loc      geo.Location `msgpack:"loc"`
	Flags    SpotFlags    `msgpack:"flags"`
	Links    []SpotKey    `msgpack:"links"`
}

// Encode serializes every spot and its adjacency, grouped by the chunk the
// spot lies in. Output is ordered by chunk coordinate.
func (g *Graph) Encode() ([]ChunkBlob, error) {
	byChunk := make(map[geo.ChunkCoord][]spotRecord)
	for _, s := range g.Spots() {
		links := make([]SpotKey, len(s.neighbors))
		for i, n := range s.neighbors {
			links[i] = n.key
		}
		c := geo.ChunkOf(s.loc.X, s.loc.Y)
		byChunk[c] = append(byChunk[c], spotRecord{Loc: s.loc, Flags: s.flags, Links: links})
	}

	coords := make([]geo.ChunkCoord, 0, len(byChunk))
	for c := range byChunk {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, func(a, b geo.ChunkCoord) int {
		return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Y, b.Y))
	})

	blobs := make([]ChunkBlob, 0, len(coords))
	for _, c := range coords {
		data, err := msgpack.Marshal(&chunkRecord{
			Version: FormatVersion,
			MapID:   g.mapID,
			Chunk:   c,
			Spots:   byChunk[c],
		})
		if err != nil {
			return nil, fmt.Errorf("encoding chunk %s: %w", c, err)
		}
		blobs = append(blobs, ChunkBlob{Chunk: c, Version: FormatVersion, Data: data})
	}
	return blobs, nil
}

// Decode replaces the graph content with blobs. On any error, including a
// version mismatch in a single blob, the graph is left empty.
func (g *Graph) Decode(blobs []ChunkBlob) error {
	g.reset()
	if err := g.decode(blobs); err != nil {
		g.reset()
		return err
	}
	return nil
}

func (g *Graph) decode(blobs []ChunkBlob) error {
	records := make([]chunkRecord, len(blobs))
	for i, b := range blobs {
		if b.Version != FormatVersion {
			return fmt.Errorf("chunk %s has version %d, want %d: %w", b.Chunk, b.Version, FormatVersion, ErrVersionMismatch)
		}
		rec := &records[i]
		if err := msgpack.Unmarshal(b.Data, rec); err != nil {
			return fmt.Errorf("decoding chunk %s: %w", b.Chunk, err)
		}
		if rec.Version != FormatVersion {
			return fmt.Errorf("chunk %s record has version %d, want %d: %w", b.Chunk, rec.Version, FormatVersion, ErrVersionMismatch)
		}
		if rec.MapID != g.mapID {
			return fmt.Errorf("chunk %s belongs to map %d, graph is map %d", b.Chunk, rec.MapID, g.mapID)
		}
	}

	for _, rec := range records {
		for _, sr := range rec.Spots {
			key := KeyOf(sr.Loc)
			if _, dup := g.spots[key]; dup {
				return fmt.Errorf("duplicate spot %s in chunk %s", key, rec.Chunk)
			}
			g.insert(key, sr.Loc, sr.Flags)
		}
	}

	for _, rec := range records {
		for _, sr := range rec.Spots {
			s := g.spots[KeyOf(sr.Loc)]
			for _, k := range sr.Links {
				if n, ok := g.spots[k]; ok && n != s && !s.HasNeighbor(n) {
					s.neighbors = append(s.neighbors, n)
				}
			}
		}
	}
	return nil
}
