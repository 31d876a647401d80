// Package kvstore persists path graphs in an embedded badger database.
package kvstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/pathgraph"
)

// GraphStore keeps one key per map chunk: "graph/<map>/" followed by the
// big-endian chunk coordinate. Values are a big-endian version followed by
// the encoded chunk.
type GraphStore struct {
	db *badger.DB
}

var _ pathgraph.Store = (*GraphStore)(nil)

// Open opens the store in dir. An empty dir opens an in-memory store.
func Open(dir string) (*GraphStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(slogLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store %q: %w", dir, err)
	}
	return &GraphStore{db: db}, nil
}

// Close flushes and closes the database.
func (s *GraphStore) Close() error {
	return s.db.Close()
}

func mapPrefix(mapID int) []byte {
	return fmt.Appendf(nil, "graph/%d/", mapID)
}

func chunkKey(mapID int, c geo.ChunkCoord) []byte {
	key := mapPrefix(mapID)
	key = binary.BigEndian.AppendUint32(key, uint32(int32(c.X))^0x80000000)
	key = binary.BigEndian.AppendUint32(key, uint32(int32(c.Y))^0x80000000)
	return key
}

func chunkOf(key, prefix []byte) (geo.ChunkCoord, error) {
	rest := key[len(prefix):]
	if len(rest) != 8 {
		return geo.ChunkCoord{}, fmt.Errorf("malformed chunk key %q", key)
	}
	x := int32(binary.BigEndian.Uint32(rest[:4]) ^ 0x80000000)
	y := int32(binary.BigEndian.Uint32(rest[4:]) ^ 0x80000000)
	return geo.ChunkCoord{X: int(x), Y: int(y)}, nil
}

// SaveGraph replaces all chunks of mapID. Writes go through a WriteBatch,
// which splits them across transactions so graph size is not bounded by
// badger's transaction limit. New chunks are written before stale ones are
// removed, so an interrupted save never leaves the map with fewer chunks.
func (s *GraphStore) SaveGraph(_ context.Context, mapID int, blobs []pathgraph.ChunkBlob) error {
	stale, err := s.keys(mapPrefix(mapID))
	if err != nil {
		return fmt.Errorf("saving graph for map %d: %w", mapID, err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, b := range blobs {
		key := chunkKey(mapID, b.Chunk)
		delete(stale, string(key))

		val := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(b.Data)), uint32(b.Version))
		val = append(val, b.Data...)
		if err := wb.Set(key, val); err != nil {
			return fmt.Errorf("saving chunk %s of map %d: %w", b.Chunk, mapID, err)
		}
	}
	for k := range stale {
		if err := wb.Delete([]byte(k)); err != nil {
			return fmt.Errorf("saving graph for map %d: %w", mapID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("saving graph for map %d: %w", mapID, err)
	}
	return nil
}

// DeleteGraph removes every chunk of mapID.
func (s *GraphStore) DeleteGraph(_ context.Context, mapID int) error {
	if err := s.db.DropPrefix(mapPrefix(mapID)); err != nil {
		return fmt.Errorf("deleting graph for map %d: %w", mapID, err)
	}
	return nil
}

// keys returns every key under prefix.
func (s *GraphStore) keys(prefix []byte) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			out[string(it.Item().Key())] = struct{}{}
		}
		return nil
	})
	return out, err
}

// LoadGraph returns the chunks of mapID ordered by chunk coordinate.
func (s *GraphStore) LoadGraph(_ context.Context, mapID int) ([]pathgraph.ChunkBlob, error) {
	prefix := mapPrefix(mapID)
	var out []pathgraph.ChunkBlob
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 16})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			c, err := chunkOf(item.Key(), prefix)
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if len(val) < 4 {
				return fmt.Errorf("chunk %s: value too short", c)
			}
			out = append(out, pathgraph.ChunkBlob{
				Chunk:   c,
				Version: int(binary.BigEndian.Uint32(val[:4])),
				Data:    val[4:],
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading graph for map %d: %w", mapID, err)
	}
	return out, nil
}

// slogLogger routes badger's logging into slog.
type slogLogger struct{}

func (slogLogger) Errorf(f string, args ...any)   { slog.Error(fmt.Sprintf(f, args...), "component", "badger") }
func (slogLogger) Warningf(f string, args ...any) { slog.Warn(fmt.Sprintf(f, args...), "component", "badger") }
func (slogLogger) Infof(f string, args ...any)    { slog.Debug(fmt.Sprintf(f, args...), "component", "badger") }
func (slogLogger) Debugf(f string, args ...any)   { slog.Debug(fmt.Sprintf(f, args...), "component", "badger") }
