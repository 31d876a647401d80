package geo

import (
	"fmt"
	"math"
)

// Params are the body and probe dimensions used for height resolution and
// standability checks.
type Params struct {
	// Clearance is the reference character clearance height. It sizes the small
	// probe window, and half of it is the model-vs-terrain noise threshold.
	Clearance float64
	// CharacterHeight is the head clearance required above a standable spot.
	CharacterHeight float64
	// Radius is the body radius that must be free around a spot.
	Radius float64
	// MaxStepUp is the largest height change allowed between step samples.
	MaxStepUp float64
	// StepSample is the horizontal distance between samples along a step.
	StepSample float64
	// LargeProbe is the half-height of the window used without a height hint.
	LargeProbe float64
}

// DefaultParams returns Params with the package defaults.
func DefaultParams() Params {
	return Params{
		Clearance:       DefaultClearance,
		CharacterHeight: DefaultCharacterHeight,
		Radius:          DefaultRadius,
		MaxStepUp:       DefaultMaxStepUp,
		StepSample:      DefaultStepSample,
		LargeProbe:      DefaultLargeProbe,
	}
}

// Validate rejects non-positive dimensions.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"clearance", p.Clearance},
		{"character_height", p.CharacterHeight},
		{"radius", p.Radius},
		{"max_step_up", p.MaxStepUp},
		{"step_sample", p.StepSample},
		{"large_probe", p.LargeProbe},
	} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("geo param %s must be positive, got %v", f.name, f.v)
		}
	}
	return nil
}

// Height is the result of a height query. The zero value is unresolved and
// carries no usable coordinate.
type Height struct {
	z       float64
	surface SurfaceFlags
	ok      bool
}

// Unresolved is the height returned when no standable surface was found.
var Unresolved = Height{}

func resolved(z float64, surface SurfaceFlags) Height {
	return Height{z: z, surface: surface, ok: true}
}

// Z returns the height and whether it was resolved.
func (h Height) Z() (float64, bool) {
	return h.z, h.ok
}

// Resolved reports whether a surface was found.
func (h Height) Resolved() bool { return h.ok }

// Surface returns the flags of the surface the height came from.
func (h Height) Surface() SurfaceFlags { return h.surface }

func (h Height) String() string {
	if !h.ok {
		return "unresolved"
	}
	return fmt.Sprintf("%.3f (%s)", h.z, h.surface)
}

type window struct {
	low, high float64
}

// Resolver finds standable heights by probing one map's ChunkStore.
type Resolver struct {
	store  *ChunkStore
	params Params
}

// NewResolver creates a Resolver over store.
func NewResolver(store *ChunkStore, params Params) *Resolver {
	return &Resolver{store: store, params: params}
}

// Params returns the resolver's dimensions.
func (r *Resolver) Params() Params { return r.params }

// Store returns the underlying chunk store.
func (r *Resolver) Store() *ChunkStore { return r.store }

func (r *Resolver) smallWindow(zHint float64) window {
	return window{low: zHint - r.params.Clearance, high: zHint + r.params.Clearance}
}

func (r *Resolver) largeWindow() window {
	return window{low: -r.params.LargeProbe, high: r.params.LargeProbe}
}

// Resolve returns the standable height at (x, y).
// A zHint of 0 means no prior height is known and the large window is used.
// Otherwise the small window around zHint is tried first, then the large one
// if it had no terrain hit. The error is non-nil only for geometry I/O failures.
func (r *Resolver) Resolve(x, y, zHint float64) (Height, error) {
	if zHint == 0 {
		h, _, err := r.resolveIn(x, y, r.largeWindow())
		return h, err
	}
	h, terrainHit, err := r.resolveIn(x, y, r.smallWindow(zHint))
	if err != nil || terrainHit {
		return h, err
	}
	h, _, err = r.resolveIn(x, y, r.largeWindow())
	return h, err
}

// resolveIn applies the surface precedence inside one window:
// water above terrain wins, then a model/object close enough to terrain,
// then terrain. terrainHit reports whether the window contained terrain.
func (r *Resolver) resolveIn(x, y float64, w window) (h Height, terrainHit bool, err error) {
	ch, err := r.store.ChunkAt(x, y)
	if err != nil {
		return Unresolved, false, err
	}

	terrainZ, _, terrainOK := ch.highestHit(x, y, w.low, w.high, SurfaceTerrain)
	waterZ, _, waterOK := ch.highestHit(x, y, w.low, w.high, SurfaceWater)

	if waterOK && (!terrainOK || waterZ > terrainZ) {
		return resolved(waterZ, SurfaceWater), terrainOK, nil
	}

	modelZ, modelFlags, modelOK := ch.highestHit(x, y, w.low, w.high, SurfaceObject|SurfaceModel)
	if !modelOK {
		if !terrainOK {
			return Unresolved, false, nil
		}
		return resolved(terrainZ, SurfaceTerrain), true, nil
	}

	// disconnected foliage and similar geometry far from the ground is noise
	if terrainOK && math.Abs(modelZ-terrainZ) > r.params.Clearance/2 {
		return resolved(terrainZ, SurfaceTerrain), true, nil
	}
	return resolved(modelZ, modelFlags&(SurfaceObject|SurfaceModel)), terrainOK, nil
}
