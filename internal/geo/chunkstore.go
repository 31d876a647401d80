package geo

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/udisondev/ppather/internal/metrics"
)

// ErrGeometryIO marks a failed chunk fetch. Failed chunks are never cached.
var ErrGeometryIO = errors.New("geometry I/O failure")

// ChunkListener is notified once per newly cached chunk.
type ChunkListener func(coord ChunkCoord, chunk *Chunk)

// ChunkStore caches chunks for one map, fetching each coordinate from the
// provider at most once. The cache lives for the whole session.
type ChunkStore struct {
	provider Provider

	mu        sync.RWMutex
	chunks    map[ChunkCoord]*Chunk
	listeners []ChunkListener

	inflight singleflight.Group
}

// NewChunkStore creates an empty store backed by provider.
func NewChunkStore(provider Provider) *ChunkStore {
	return &ChunkStore{
		provider: provider,
		chunks:   make(map[ChunkCoord]*Chunk, 16),
	}
}

// OnChunkAdded registers a listener. Listeners run synchronously on the
// goroutine that loaded the chunk, in registration order.
func (s *ChunkStore) OnChunkAdded(fn ChunkListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Cached returns the chunk if it is already loaded.
func (s *ChunkStore) Cached(coord ChunkCoord) (*Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.chunks[coord]
	return ch, ok
}

// Get returns the chunk at coord, loading it on first access.
// Errors wrap ErrGeometryIO; the coordinate stays eligible for retry.
func (s *ChunkStore) Get(coord ChunkCoord) (*Chunk, error) {
	if ch, ok := s.Cached(coord); ok {
		return ch, nil
	}

	v, err, _ := s.inflight.Do(coord.String(), func() (any, error) {
		// another caller may have finished between Cached and Do
		if ch, ok := s.Cached(coord); ok {
			return ch, nil
		}
		return s.load(coord)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Chunk), nil
}

// ChunkAt returns the chunk containing world (x, y).
func (s *ChunkStore) ChunkAt(x, y float64) (*Chunk, error) {
	return s.Get(ChunkOf(x, y))
}

// Len returns the number of cached chunks.
func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *ChunkStore) load(coord ChunkCoord) (*Chunk, error) {
	geom, err := s.provider.ChunkAt(coord.X, coord.Y)
	if err == nil && geom != nil {
		err = geom.Validate()
	}
	if err != nil {
		metrics.ChunkLoadErrors.Inc()
		slog.Warn("chunk fetch failed", "chunk", coord, "err", err)
		return nil, fmt.Errorf("loading chunk %s: %w: %w", coord, ErrGeometryIO, err)
	}

	ch := newChunk(coord, geom)

	s.mu.Lock()
	s.chunks[coord] = ch
	listeners := append([]ChunkListener(nil), s.listeners...)
	s.mu.Unlock()

	metrics.ChunksLoaded.Inc()
	slog.Debug("chunk loaded", "chunk", coord, "triangles", ch.TriangleCount())

	for _, fn := range listeners {
		fn(coord, ch)
	}
	return ch, nil
}
