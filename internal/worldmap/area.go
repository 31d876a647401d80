// Package worldmap holds the reference table of UI-map areas and converts
// between UI-map percentages and world coordinates.
package worldmap

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownArea means no area contains the point.
	ErrUnknownArea = errors.New("worldmap: unknown area")
	// ErrAmbiguousArea means several areas contain the point and no usable hint was given.
	ErrAmbiguousArea = errors.New("worldmap: ambiguous area")
)

// Area is one UI map and the world rectangle it shows.
//
// World X grows towards LocTop and world Y towards LocLeft. UI-map
// coordinates are percentages: (0, 0) is the top-left corner of the map and
// (100, 100) the bottom-right one.
type Area struct {
	UIMapID  int    `yaml:"ui_map_id" json:"ui_map_id"`
	MapID    int    `yaml:"map_id" json:"map_id"`
	AreaID   int    `yaml:"area_id" json:"area_id"`
	AreaName string `yaml:"area_name" json:"area_name"`

	LocTop    float64 `yaml:"loc_top" json:"loc_top"`
	LocBottom float64 `yaml:"loc_bottom" json:"loc_bottom"`
	LocLeft   float64 `yaml:"loc_left" json:"loc_left"`
	LocRight  float64 `yaml:"loc_right" json:"loc_right"`
}

// Validate rejects degenerate rectangles.
func (a Area) Validate() error {
	if a.LocTop <= a.LocBottom {
		return fmt.Errorf("area %d (%s): loc_top %v must exceed loc_bottom %v", a.UIMapID, a.AreaName, a.LocTop, a.LocBottom)
	}
	if a.LocLeft <= a.LocRight {
		return fmt.Errorf("area %d (%s): loc_left %v must exceed loc_right %v", a.UIMapID, a.AreaName, a.LocLeft, a.LocRight)
	}
	return nil
}

// Contains reports whether world (x, y) lies inside the area, edges included.
func (a Area) Contains(x, y float64) bool {
	return x >= a.LocBottom && x <= a.LocTop && y >= a.LocRight && y <= a.LocLeft
}

// ToWorld converts UI-map percentages to world x, y.
func (a Area) ToWorld(mapX, mapY float64) (x, y float64) {
	x = a.LocTop - mapY/100*(a.LocTop-a.LocBottom)
	y = a.LocLeft - mapX/100*(a.LocLeft-a.LocRight)
	return x, y
}

// ToMap converts world x, y to UI-map percentages.
func (a Area) ToMap(x, y float64) (mapX, mapY float64) {
	mapX = (a.LocLeft - y) / (a.LocLeft - a.LocRight) * 100
	mapY = (a.LocTop - x) / (a.LocTop - a.LocBottom) * 100
	return mapX, mapY
}

func (a Area) String() string {
	return fmt.Sprintf("%s (ui map %d, map %d, area %d)", a.AreaName, a.UIMapID, a.MapID, a.AreaID)
}
