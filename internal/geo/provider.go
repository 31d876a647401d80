package geo

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// Provider supplies triangle geometry for one map.
// ChunkAt may block on I/O; it must be deterministic and idempotent per coordinate.
// A chunk with no geometry is returned as empty geometry, not as an error.
type Provider interface {
	ChunkAt(gridX, gridY int) (*ChunkGeometry, error)
}

// Source hands out providers restricted to a single map id.
type Source interface {
	ForMap(mapID int) (Provider, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(gridX, gridY int) (*ChunkGeometry, error)

// ChunkAt calls f(gridX, gridY).
func (f ProviderFunc) ChunkAt(gridX, gridY int) (*ChunkGeometry, error) {
	return f(gridX, gridY)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(mapID int) (Provider, error)

// ForMap calls f(mapID).
func (f SourceFunc) ForMap(mapID int) (Provider, error) {
	return f(mapID)
}

// DirSource reads chunk files laid out as "<dir>/<mapID>/<gridX>_<gridY>.tri".
type DirSource struct {
	dir string
}

// NewDirSource creates a Source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// ForMap returns a provider for the map's directory.
func (s *DirSource) ForMap(mapID int) (Provider, error) {
	mapDir := filepath.Join(s.dir, strconv.Itoa(mapID))
	info, err := os.Stat(mapDir)
	if err != nil {
		return nil, fmt.Errorf("opening geometry for map %d: %w", mapID, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening geometry for map %d: %s is not a directory", mapID, mapDir)
	}
	return &dirProvider{mapID: mapID, dir: mapDir}, nil
}

type dirProvider struct {
	mapID int
	dir   string
}

// ChunkFileName returns the file name of a chunk inside a map directory.
func ChunkFileName(gridX, gridY int) string {
	return fmt.Sprintf("%d_%d%s", gridX, gridY, chunkFileExt)
}

func (p *dirProvider) ChunkAt(gridX, gridY int) (*ChunkGeometry, error) {
	name := ChunkFileName(gridX, gridY)
	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("no geometry file, chunk is empty", "map", p.mapID, "file", name)
			return &ChunkGeometry{}, nil
		}
		return nil, fmt.Errorf("reading geometry %s: %w", name, err)
	}

	g, err := ParseChunkGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("parsing geometry %s: %w", name, err)
	}
	return g, nil
}
