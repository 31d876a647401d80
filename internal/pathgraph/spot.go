package pathgraph

import (
	"fmt"
	"math"

	"github.com/udisondev/ppather/internal/geo"
)

// SpotResolution is the quantization step of spot identity, in world units.
const SpotResolution = 0.1

// SpotKey identifies a spot by its quantized position. It is persisted as a
// three-element array.
type SpotKey struct {
	_msgpack struct{} `msgpack:",as_array"`
	X, Y, Z  int64
}

// KeyOf quantizes loc to a SpotKey.
func KeyOf(loc geo.Location) SpotKey {
	return SpotKey{
		X: int64(math.Round(loc.X / SpotResolution)),
		Y: int64(math.Round(loc.Y / SpotResolution)),
		Z: int64(math.Round(loc.Z / SpotResolution)),
	}
}

func (k SpotKey) String() string {
	return fmt.Sprintf("%d:%d:%d", k.X, k.Y, k.Z)
}

func (k SpotKey) less(o SpotKey) bool {
	if k.X != o.X {
		return k.X < o.X
	}
	if k.Y != o.Y {
		return k.Y < o.Y
	}
	return k.Z < o.Z
}

// SpotFlags describe a spot.
type SpotFlags uint8

const (
	SpotWater SpotFlags = 1 << iota // resolved on a water surface
	SpotGrown                       // neighbors were sampled already
)

// Spot is a sampled navigable point. Spots are owned by a Graph.
type Spot struct {
	key       SpotKey
	loc       geo.Location
	flags     SpotFlags
	neighbors []*Spot
}

// Key returns the spot identity.
func (s *Spot) Key() SpotKey { return s.key }

// Location returns the spot position.
func (s *Spot) Location() geo.Location { return s.loc }

// Flags returns the spot flags.
func (s *Spot) Flags() SpotFlags { return s.flags }

// IsWater reports whether the spot lies on water.
func (s *Spot) IsWater() bool { return s.flags&SpotWater != 0 }

// Grown reports whether neighbors were sampled around the spot.
func (s *Spot) Grown() bool { return s.flags&SpotGrown != 0 }

// Neighbors returns the linked spots in link order. Callers must not modify it.
func (s *Spot) Neighbors() []*Spot { return s.neighbors }

// HasNeighbor reports whether s links to o.
func (s *Spot) HasNeighbor(o *Spot) bool {
	for _, n := range s.neighbors {
		if n == o {
			return true
		}
	}
	return false
}

func (s *Spot) String() string {
	return fmt.Sprintf("spot(%s)", s.loc)
}
