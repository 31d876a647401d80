package pathgraph

import (
	"github.com/udisondev/ppather/internal/geo"
)

// Path is an immutable start-to-goal sequence of world positions.
// The zero value is the empty path.
type Path struct {
	points []geo.Location
}

// NewPath copies points into a Path.
func NewPath(points []geo.Location) Path {
	if len(points) == 0 {
		return Path{}
	}
	return Path{points: append([]geo.Location(nil), points...)}
}

// Len returns the number of points.
func (p Path) Len() int { return len(p.points) }

// Empty reports whether the path has no points.
func (p Path) Empty() bool { return len(p.points) == 0 }

// At returns the i-th point.
func (p Path) At(i int) geo.Location { return p.points[i] }

// Points returns a copy of the points.
func (p Path) Points() []geo.Location {
	return append([]geo.Location(nil), p.points...)
}

// First returns the start point.
func (p Path) First() (geo.Location, bool) {
	if len(p.points) == 0 {
		return geo.Location{}, false
	}
	return p.points[0], true
}

// Last returns the end point.
func (p Path) Last() (geo.Location, bool) {
	if len(p.points) == 0 {
		return geo.Location{}, false
	}
	return p.points[len(p.points)-1], true
}

// Length returns the total 3D length of the path.
func (p Path) Length() float64 {
	total := 0.0
	for i := 1; i < len(p.points); i++ {
		total += p.points[i-1].Distance(p.points[i])
	}
	return total
}
