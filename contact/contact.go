package contact

import (
	"math"

	"covtrace/ray"
	"covtrace/vmath/vec3"
)

// Contact describes where a ray struck the scene.
type Contact struct {
	// Distance along R.  NaN for a miss.
	T float64
	R ray.Ray
	P vec3.T

	// N is the outward geometric normal, NL the normal flipped to face the
	// incoming ray.
	N  vec3.T
	NL vec3.T
}

func ContactNaN() Contact {
	return Contact{
		T: math.NaN(),
	}
}

func (c Contact) Hit() bool {
	return !math.IsNaN(c.T)
}

// New fills in the hit point and oriented normal for a hit at distance t on a
// surface with outward normal n.
func New(r ray.Ray, t float64, n vec3.T) Contact {
	nl := n
	if vec3.IProd(n, r.Slope) >= 0 {
		nl = vec3.MulVS(n, -1)
	}
	return Contact{
		T:  t,
		R:  r,
		P:  r.Eval(t),
		N:  n,
		NL: nl,
	}
}
