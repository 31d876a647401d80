package pathgraph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Store persists encoded graphs keyed by map id.
type Store interface {
	// SaveGraph replaces every chunk stored for mapID with blobs.
	SaveGraph(ctx context.Context, mapID int, blobs []ChunkBlob) error
	// LoadGraph returns the chunks stored for mapID; none is not an error.
	LoadGraph(ctx context.Context, mapID int) ([]ChunkBlob, error)
}

// Save encodes the graph into store.
func (g *Graph) Save(ctx context.Context, store Store) error {
	blobs, err := g.Encode()
	if err != nil {
		return err
	}
	if err := store.SaveGraph(ctx, g.mapID, blobs); err != nil {
		return fmt.Errorf("saving graph for map %d: %w", g.mapID, err)
	}
	slog.Info("path graph saved", "map", g.mapID, "spots", g.Len(), "chunks", len(blobs))
	return nil
}

// Restore replaces the graph with the content stored for its map.
// Missing data leaves the graph empty. A version mismatch or undecodable data
// also leaves it empty and is reported so the caller can rebuild.
func (g *Graph) Restore(ctx context.Context, store Store) error {
	blobs, err := store.LoadGraph(ctx, g.mapID)
	if err != nil {
		g.reset()
		return fmt.Errorf("loading graph for map %d: %w", g.mapID, err)
	}
	if err := g.Decode(blobs); err != nil {
		return fmt.Errorf("restoring graph for map %d: %w", g.mapID, err)
	}
	slog.Info("path graph restored", "map", g.mapID, "spots", g.Len(), "chunks", len(blobs))
	return nil
}

// MemoryStore keeps graphs in memory.
type MemoryStore struct {
	mu     sync.Mutex
	graphs map[int][]ChunkBlob
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[int][]ChunkBlob)}
}

// SaveGraph implements Store.
func (m *MemoryStore) SaveGraph(_ context.Context, mapID int, blobs []ChunkBlob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graphs[mapID] = cloneBlobs(blobs)
	return nil
}

// LoadGraph implements Store.
func (m *MemoryStore) LoadGraph(_ context.Context, mapID int) ([]ChunkBlob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneBlobs(m.graphs[mapID]), nil
}

func cloneBlobs(blobs []ChunkBlob) []ChunkBlob {
	if blobs == nil {
		return nil
	}
	out := make([]ChunkBlob, len(blobs))
	for i, b := range blobs {
		out[i] = ChunkBlob{Chunk: b.Chunk, Version: b.Version, Data: append([]byte(nil), b.Data...)}
	}
	return out
}
