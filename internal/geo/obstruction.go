package geo

import (
	"math"

	"github.com/golang/geo/r3"
)

// LineOfSight reports whether segment a→b crosses no solid triangle.
// Chunks that fail to load are reported through the error and count as blocked.
func (r *Resolver) LineOfSight(a, b Location) (bool, error) {
	p0, p1 := a.Vec(), b.Vec()
	for _, coord := range ChunksInRect(a.X, a.Y, b.X, b.Y) {
		ch, err := r.store.Get(coord)
		if err != nil {
			return false, err
		}
		if ch.segmentBlocked(p0, p1, SurfaceSolid) {
			return false, nil
		}
	}
	return true, nil
}

// IsSpotBlocked reports whether a character cannot stand at loc: something
// solid above the feet within CharacterHeight, or within Radius at waist height.
func (r *Resolver) IsSpotBlocked(loc Location) (bool, error) {
	p := r.params
	feet := loc.Add(0, 0, p.CharacterHeight*0.25)
	head := loc.Add(0, 0, p.CharacterHeight)
	clear, err := r.LineOfSight(feet, head)
	if err != nil || !clear {
		return true, err
	}

	waist := loc.Add(0, 0, p.CharacterHeight/2)
	for _, d := range [4][2]float64{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		clear, err := r.LineOfSight(waist, waist.Add(d[0]*p.Radius, d[1]*p.Radius, 0))
		if err != nil || !clear {
			return true, err
		}
	}
	return false, nil
}

// IsStepBlocked reports whether a character cannot walk straight from a to b.
// The segment is sampled every StepSample units; every sample must resolve to a
// height within MaxStepUp of the previous one, with clear line of sight at
// waist height, and the walk must end on b's layer.
func (r *Resolver) IsStepBlocked(a, b Location) (bool, error) {
	p := r.params
	dist := a.Distance2D(b)
	steps := int(math.Ceil(dist / p.StepSample))
	if steps < 1 {
		steps = 1
	}

	waist := r3.Vector{Z: p.CharacterHeight / 2}
	prev := a
	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		x := a.X + (b.X-a.X)*f
		y := a.Y + (b.Y-a.Y)*f

		h, err := r.Resolve(x, y, prev.Z)
		if err != nil {
			return true, err
		}
		z, ok := h.Z()
		if !ok || math.Abs(z-prev.Z) > p.MaxStepUp {
			return true, nil
		}
		cur := Location{X: x, Y: y, Z: z}

		clear, err := r.LineOfSight(LocationOf(prev.Vec().Add(waist)), LocationOf(cur.Vec().Add(waist)))
		if err != nil || !clear {
			return true, err
		}
		prev = cur
	}

	return math.Abs(prev.Z-b.Z) > p.MaxStepUp, nil
}
