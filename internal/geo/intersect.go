package geo

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	intersectEpsilon = 1e-9
	// edgeTolerance lets probes that land exactly on a shared edge hit both triangles.
	edgeTolerance = 1e-6
)

// intersectSegment tests segment p0→p1 against triangle (a, b, c) using
// Möller–Trumbore. Returns the parametric position t∈[0,1] along the segment.
func intersectSegment(p0, p1, a, b, c r3.Vector) (float64, bool) {
	dir := p1.Sub(p0)
	e1 := b.Sub(a)
	e2 := c.Sub(a)

	pvec := dir.Cross(e2)
	det := e1.Dot(pvec)
	if math.Abs(det) < intersectEpsilon {
		return 0, false // parallel to the triangle plane
	}
	inv := 1 / det

	tvec := p0.Sub(a)
	u := tvec.Dot(pvec) * inv
	if u < -edgeTolerance || u > 1+edgeTolerance {
		return 0, false
	}

	qvec := tvec.Cross(e1)
	v := dir.Dot(qvec) * inv
	if v < -edgeTolerance || u+v > 1+edgeTolerance {
		return 0, false
	}

	t := e2.Dot(qvec) * inv
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// verticalHit returns the height at which the vertical line through (x, y)
// crosses triangle (a, b, c), if that height lies inside [low, high].
func verticalHit(x, y, low, high float64, a, b, c r3.Vector) (float64, bool) {
	top := r3.Vector{X: x, Y: y, Z: high}
	bottom := r3.Vector{X: x, Y: y, Z: low}
	t, ok := intersectSegment(top, bottom, a, b, c)
	if !ok {
		return 0, false
	}
	return high - t*(high-low), true
}

// triangleBounds2D returns the XY bounding rectangle of a triangle.
func triangleBounds2D(a, b, c r3.Vector) (minX, minY, maxX, maxY float64) {
	minX = math.Min(a.X, math.Min(b.X, c.X))
	minY = math.Min(a.Y, math.Min(b.Y, c.Y))
	maxX = math.Max(a.X, math.Max(b.X, c.X))
	maxY = math.Max(a.Y, math.Max(b.Y, c.Y))
	return minX, minY, maxX, maxY
}
