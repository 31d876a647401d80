// Package pathgraph grows a graph of standable spots on demand and searches it.
package pathgraph

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/udisondev/ppather/internal/geo"
	"github.com/udisondev/ppather/internal/metrics"
	"github.com/udisondev/ppather/internal/spatial"
)

// ErrUnresolved is returned when a seed location has no standable surface.
var ErrUnresolved = errors.New("no standable surface")

// Config controls how the graph is sampled.
type Config struct {
	// StepLength is the distance from a spot to the candidates sampled around it.
	StepLength float64
	// SnapRadius is the 3D distance within which a candidate reuses an existing spot.
	SnapRadius float64
	// LinkRadius bounds the existing spots a grown spot tries to link to.
	LinkRadius float64
}

// DefaultConfig returns the default sampling configuration.
func DefaultConfig() Config {
	return Config{
		StepLength: 3,
		SnapRadius: 1.5,
		LinkRadius: 3,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !(c.StepLength > 0) {
		return fmt.Errorf("step length must be positive, got %v", c.StepLength)
	}
	if c.SnapRadius < 0 || c.SnapRadius >= c.StepLength {
		return fmt.Errorf("snap radius must be in [0, step length), got %v", c.SnapRadius)
	}
	if c.LinkRadius < 0 {
		return fmt.Errorf("link radius must not be negative, got %v", c.LinkRadius)
	}
	return nil
}

// growDirections are the unit vectors candidates are sampled along.
var growDirections = func() [8][2]float64 {
	var d [8][2]float64
	for i := range d {
		a := float64(i) * math.Pi / 4
		d[i] = [2]float64{math.Cos(a), math.Sin(a)}
	}
	return d
}()

// Graph is the navigation graph of one map. Not safe for concurrent use.
type Graph struct {
	mapID    int
	resolver *geo.Resolver
	cfg      Config

	spots map[SpotKey]*Spot
	index *spatial.Index[*Spot]
}

// New creates an empty graph for mapID sampling heights from resolver.
func New(mapID int, resolver *geo.Resolver, cfg Config) *Graph {
	g := &Graph{mapID: mapID, resolver: resolver, cfg: cfg}
	g.reset()
	return g
}

func (g *Graph) reset() {
	g.spots = make(map[SpotKey]*Spot, 256)
	g.index = spatial.New[*Spot](g.cfg.StepLength)
}

// MapID returns the map the graph belongs to.
func (g *Graph) MapID() int { return g.mapID }

// Resolver returns the height resolver backing the graph.
func (g *Graph) Resolver() *geo.Resolver { return g.resolver }

// Config returns the sampling configuration.
func (g *Graph) Config() Config { return g.cfg }

// Len returns the number of spots.
func (g *Graph) Len() int { return len(g.spots) }

// Spot returns the spot with the given key.
func (g *Graph) Spot(key SpotKey) (*Spot, bool) {
	s, ok := g.spots[key]
	return s, ok
}

// Spots returns all spots ordered by key.
func (g *Graph) Spots() []*Spot {
	out := make([]*Spot, 0, len(g.spots))
	for _, s := range g.spots {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Spot) int {
		switch {
		case a.key.less(b.key):
			return -1
		case b.key.less(a.key):
			return 1
		}
		return 0
	})
	return out
}

// SpotsNear returns the spots whose index cells overlap the square of the
// given radius around (x, y).
func (g *Graph) SpotsNear(x, y, radius float64) []*Spot {
	spots, _ := g.index.Region(x-radius, y-radius, x+radius, y+radius)
	return spots
}

// NearestSpot returns the spot closest to loc within radius (3D), or nil.
func (g *Graph) NearestSpot(loc geo.Location, radius float64) *Spot {
	var best *Spot
	bestDist := math.Inf(1)
	g.index.ForEachInRegion(loc.X-radius, loc.Y-radius, loc.X+radius, loc.Y+radius, func(s *Spot) bool {
		if d := s.loc.Distance(loc); d <= radius && d < bestDist {
			best, bestDist = s, d
		}
		return true
	})
	return best
}

// AddSpot returns the spot at loc's key, creating it if needed.
// The boolean reports whether a new spot was created.
func (g *Graph) AddSpot(loc geo.Location, flags SpotFlags) (*Spot, bool) {
	key := KeyOf(loc)
	if s, ok := g.spots[key]; ok {
		return s, false
	}
	s := g.insert(key, loc, flags)
	metrics.SpotsCreated.Inc()
	return s, true
}

func (g *Graph) insert(key SpotKey, loc geo.Location, flags SpotFlags) *Spot {
	s := &Spot{key: key, loc: loc, flags: flags}
	g.spots[key] = s
	g.index.Add(loc.X, loc.Y, s)
	return s
}

// Link connects a and b in both directions. Linking twice is a no-op.
func (g *Graph) Link(a, b *Spot) {
	if a == b {
		return
	}
	if !a.HasNeighbor(b) {
		a.neighbors = append(a.neighbors, b)
	}
	if !b.HasNeighbor(a) {
		b.neighbors = append(b.neighbors, a)
	}
}

// Seed returns the spot a search starting at loc should use: the spot at the
// standable height below loc, created if missing. loc.Z is used as height hint.
func (g *Graph) Seed(loc geo.Location) (*Spot, error) {
	at, flags, err := g.standable(loc.X, loc.Y, loc.Z)
	if err != nil {
		return nil, err
	}
	if s := g.NearestSpot(at, SpotResolution); s != nil {
		return s, nil
	}
	s, _ := g.AddSpot(at, flags)
	return s, nil
}

// standable resolves the surface at (x, y) into a spot location.
func (g *Graph) standable(x, y, zHint float64) (geo.Location, SpotFlags, error) {
	h, err := g.resolver.Resolve(x, y, zHint)
	if err != nil {
		return geo.Location{}, 0, err
	}
	z, ok := h.Z()
	if !ok {
		return geo.Location{}, 0, fmt.Errorf("at (%.2f, %.2f): %w", x, y, ErrUnresolved)
	}
	var flags SpotFlags
	if h.Surface().Has(geo.SurfaceWater) {
		flags |= SpotWater
	}
	return geo.Location{X: x, Y: y, Z: z}, flags, nil
}

// GrowAroundSpot samples candidates in eight directions around seed, accepts
// the standable ones that can be walked to, and links seed to them and to any
// reachable spot already within LinkRadius. A spot is grown at most once.
// Returns the number of spots created. Errors are geometry I/O failures;
// the seed is left ungrown so growth can be retried.
func (g *Graph) GrowAroundSpot(seed *Spot) (int, error) {
	if seed.Grown() {
		return 0, nil
	}

	created := 0
	for _, d := range growDirections {
		x := seed.loc.X + d[0]*g.cfg.StepLength
		y := seed.loc.Y + d[1]*g.cfg.StepLength

		at, flags, err := g.standable(x, y, seed.loc.Z)
		if errors.Is(err, ErrUnresolved) {
			continue
		}
		if err != nil {
			return created, err
		}

		if near := g.NearestSpot(at, g.cfg.SnapRadius); near != nil {
			if err := g.tryLink(seed, near); err != nil {
				return created, err
			}
			continue
		}

		blocked, err := g.resolver.IsSpotBlocked(at)
		if err != nil {
			return created, err
		}
		if blocked {
			continue
		}
		blocked, err = g.resolver.IsStepBlocked(seed.loc, at)
		if err != nil {
			return created, err
		}
		if blocked {
			continue
		}

		s, isNew := g.AddSpot(at, flags)
		if isNew {
			created++
		}
		g.Link(seed, s)
	}

	if g.cfg.LinkRadius > 0 {
		for _, s := range g.SpotsNear(seed.loc.X, seed.loc.Y, g.cfg.LinkRadius) {
			if s.loc.Distance(seed.loc) > g.cfg.LinkRadius {
				continue
			}
			if err := g.tryLink(seed, s); err != nil {
				return created, err
			}
		}
	}

	seed.flags |= SpotGrown
	return created, nil
}

func (g *Graph) tryLink(a, b *Spot) error {
	if a == b || a.HasNeighbor(b) {
		return nil
	}
	blocked, err := g.resolver.IsStepBlocked(a.loc, b.loc)
	if err != nil {
		return err
	}
	if !blocked {
		g.Link(a, b)
	}
	return nil
}
