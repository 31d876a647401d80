package pather

import (
	"context"
	"fmt"

	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/pathgraph"
	"github.com/udisondev/ppather/internal/search"
	"github.com/udisondev/ppather/internal/worldmap"
)

// MapPoint is a position in UI-map percentages.
type MapPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MapRoute is a route requested in UI-map coordinates.
type MapRoute struct {
	Area     worldmap.Area
	Strategy pathgraph.Strategy
	Result   search.Result
	// Points is the found path converted back to the area's UI map.
	Points []MapPoint
}

// FindMapRoute searches a route between two points of one UI map. Heights are
// unknown on a UI map, so both ends are probed without a hint.
func (s *Service) FindMapRoute(ctx context.Context, uiMapID int, from, to MapPoint, strategy pathgraph.Strategy, radius float64) (MapRoute, error) {
	start, ok, err := s.ToWorld(ctx, uiMapID, from.X, from.Y, 0)
	if err != nil {
		return MapRoute{}, err
	}
	if !ok {
		return MapRoute{}, fmt.Errorf("ui map %d: %w", uiMapID, worldmap.ErrUnknownArea)
	}
	area, _ := s.areas.Area(uiMapID)
	gx, gy := area.ToWorld(to.X, to.Y)
	goal := geo.Location{X: gx, Y: gy}

	res, err := s.FindRoute(ctx, area.MapID, start, goal, strategy, radius)
	if err != nil {
		return MapRoute{}, err
	}

	route := MapRoute{Area: area, Strategy: strategy, Result: res}
	for _, p := range res.Path.Points() {
		mx, my := area.ToMap(p.X, p.Y)
		route.Points = append(route.Points, MapPoint{X: mx, Y: my})
	}
	return route, nil
}
