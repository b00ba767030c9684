package ray

import (
	"covtrace/vmath/vec3"
)

// Ray is a half-line.  Slope is unit length; producers normalize before
// constructing one.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

// New builds a ray, normalizing the slope.
func New(point, slope vec3.T) Ray {
	return Ray{
		Point: point,
		Slope: vec3.Normalize(slope),
	}
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}
