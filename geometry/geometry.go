package geometry

import (
	"math"

	"covtrace/ray"
	"covtrace/vmath/vec3"
)

// SelfIntersectionEpsilon is the smallest distance at which a hit counts.  It
// keeps a ray leaving a surface from striking that surface again.
const SelfIntersectionEpsilon = 1e-4

// Sphere is a world-space sphere.
type Sphere struct {
	Center vec3.T
	Radius float64
}

// Intersect returns the distance to the nearest root beyond
// SelfIntersectionEpsilon.  The bool is false on a miss.
func (s *Sphere) Intersect(query ray.Ray) (float64, bool) {
	op := vec3.SubVV(s.Center, query.Point)
	b := vec3.IProd(op, query.Slope)
	det := b*b - vec3.IProd(op, op) + s.Radius*s.Radius
	if det < 0 {
		return 0, false
	}
	det = math.Sqrt(det)

	if t := b - det; t > SelfIntersectionEpsilon {
		return t, true
	}
	if t := b + det; t > SelfIntersectionEpsilon {
		return t, true
	}
	return 0, false
}

// Normal returns the outward unit normal at p, which should lie on the
// surface.
func (s *Sphere) Normal(p vec3.T) vec3.T {
	return vec3.Normalize(vec3.SubVV(p, s.Center))
}

// Curvature is the (isotropic) principal curvature of the surface.
func (s *Sphere) Curvature() float64 {
	return 1.0 / s.Radius
}
