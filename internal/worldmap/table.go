package worldmap

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table is the read-only set of areas, indexed by UI map id.
type Table struct {
	areas   []Area
	byUIMap map[int]int
}

// NewTable validates areas and indexes them. UI map ids must be unique.
func NewTable(areas []Area) (*Table, error) {
	t := &Table{
		areas:   slices.Clone(areas),
		byUIMap: make(map[int]int, len(areas)),
	}
	for i, a := range t.areas {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := t.byUIMap[a.UIMapID]; dup {
			return nil, fmt.Errorf("duplicate ui map id %d", a.UIMapID)
		}
		t.byUIMap[a.UIMapID] = i
	}
	return t, nil
}

type tableFile struct {
	Areas []Area `yaml:"areas"`
}

// ParseTable reads a YAML document with a top-level "areas" list.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing area table: %w", err)
	}
	return NewTable(f.Areas)
}

// LoadTable reads the area table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading area table %s: %w", path, err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Len returns the number of areas.
func (t *Table) Len() int { return len(t.areas) }

// Areas returns a copy of all areas in file order.
func (t *Table) Areas() []Area { return slices.Clone(t.areas) }

// Area returns the area of a UI map.
func (t *Table) Area(uiMapID int) (Area, bool) {
	i, ok := t.byUIMap[uiMapID]
	if !ok {
		return Area{}, false
	}
	return t.areas[i], true
}

// ResolveArea returns the single area of mapID containing world (x, y).
// When several areas match, uiMapHint picks one of them; a hint naming none
// of the matches (or 0) yields ErrAmbiguousArea.
func (t *Table) ResolveArea(x, y float64, mapID, uiMapHint int) (Area, error) {
	var matches []Area
	for _, a := range t.areas {
		if a.MapID == mapID && a.Contains(x, y) {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 0:
		return Area{}, fmt.Errorf("(%.2f, %.2f) on map %d: %w", x, y, mapID, ErrUnknownArea)
	case 1:
		return matches[0], nil
	}

	for _, a := range matches {
		if uiMapHint != 0 && a.UIMapID == uiMapHint {
			return a, nil
		}
	}

	names := make([]string, len(matches))
	for i, a := range matches {
		names[i] = a.String()
	}
	return Area{}, fmt.Errorf("(%.2f, %.2f) on map %d matches %s: %w",
		x, y, mapID, strings.Join(names, ", "), ErrAmbiguousArea)
}
