package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/pathgraph"
)

// GraphRepository stores path graphs in PostgreSQL, one row per map chunk.
type GraphRepository struct {
	pool *pgxpool.Pool
}

var _ pathgraph.Store = (*GraphRepository)(nil)

// NewGraphRepository creates a GraphRepository.
func NewGraphRepository(pool *pgxpool.Pool) *GraphRepository {
	return &GraphRepository{pool: pool}
}

// SaveGraph replaces all chunks of mapID in a single transaction (full replace).
func (r *GraphRepository) SaveGraph(ctx context.Context, mapID int, blobs []pathgraph.ChunkBlob) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for map %d: %w", mapID, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "map", mapID, "err", err)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM path_graph_chunks WHERE map_id = $1`, mapID); err != nil {
		return fmt.Errorf("deleting old chunks for map %d: %w", mapID, err)
	}

	if len(blobs) > 0 {
		rows := make([][]any, 0, len(blobs))
		for _, b := range blobs {
			rows = append(rows, []any{int32(mapID), int32(b.Chunk.X), int32(b.Chunk.Y), int32(b.Version), b.Data})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"path_graph_chunks"},
			[]string{"map_id", "gx", "gy", "version", "data"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copying chunks for map %d: %w", mapID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit graph for map %d: %w", mapID, err)
	}
	return nil
}

// LoadGraph returns the chunks of mapID ordered by chunk coordinate.
func (r *GraphRepository) LoadGraph(ctx context.Context, mapID int) ([]pathgraph.ChunkBlob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT gx, gy, version, data FROM path_graph_chunks
		 WHERE map_id = $1 ORDER BY gx, gy`, mapID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks for map %d: %w", mapID, err)
	}
	defer rows.Close()

	var out []pathgraph.ChunkBlob
	for rows.Next() {
		var gx, gy, version int32
		var data []byte
		if err := rows.Scan(&gx, &gy, &version, &data); err != nil {
			return nil, fmt.Errorf("scanning chunk row for map %d: %w", mapID, err)
		}
		out = append(out, pathgraph.ChunkBlob{
			Chunk:   geo.ChunkCoord{X: int(gx), Y: int(gy)},
			Version: int(version),
			Data:    data,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk rows for map %d: %w", mapID, err)
	}
	return out, nil
}

// DeleteGraph removes every chunk of mapID.
func (r *GraphRepository) DeleteGraph(ctx context.Context, mapID int) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM path_graph_chunks WHERE map_id = $1`, mapID); err != nil {
		return fmt.Errorf("deleting graph for map %d: %w", mapID, err)
	}
	return nil
}
