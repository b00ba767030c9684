// Package covtracer propagates a ray bundle's covariance along the dominant
// (mirror) transport path through a scene.
package covtracer

import (
	"math"

	"covtrace/covariance"
	"covtrace/ray"
	"covtrace/scene"
	"covtrace/vmath/vec3"

	"github.com/golang/glog"
)

// PosCov is where a propagated bundle ended up and its covariance there.
type PosCov struct {
	Position   vec3.T
	Covariance *covariance.Covariance4D

	// Hit is false when the bundle left the scene.
	Hit bool
}

// Propagator traces covariance through Scene.  It is deterministic and holds
// no mutable state, so one value may be shared.
type Propagator struct {
	Scene    *scene.Scene
	MaxDepth int
}

// DefaultMaxDepth is the bounce budget used when none is given.
const DefaultMaxDepth = 2

func New(s *scene.Scene, maxDepth int) *Propagator {
	return &Propagator{
		Scene:    s,
		MaxDepth: maxDepth,
	}
}

// GlossyAngularBlur converts a lobe exponent into the angular covariance
// added by one reflection.
func GlossyAngularBlur(exponent float64) float64 {
	return exponent / (4 * math.Pi * math.Pi)
}

// Propagate follows r from the given depth, always reflecting specularly,
// and returns the covariance projected onto the surface reached at
// MaxDepth.  cov is not modified.
func (p *Propagator) Propagate(r ray.Ray, cov *covariance.Covariance4D, depth int) PosCov {
	cur := cov.Clone()
	curRay := r

	for ; ; depth++ {
		hit, idx := p.Scene.SceneRayIntersect(curRay)
		if idx == -1 {
			return PosCov{Covariance: covariance.Empty()}
		}
		elt := p.Scene.Elements[idx]

		cur.Travel(hit.T)
		cur.Projection(hit.N)

		if depth >= p.MaxDepth {
			cur.FlipSpatialCorrelation()
			return PosCov{
				Position:   hit.P,
				Covariance: cur,
				Hit:        true,
			}
		}

		wi := vec3.MulVS(curRay.Slope, -1)
		wr := vec3.SubVV(vec3.MulVS(hit.NL, 2*vec3.IProd(wi, hit.NL)), wi)

		k := elt.TheGeometry.Curvature()
		rho := GlossyAngularBlur(elt.TheMaterial.Exponent())

		cur.Curvature(k, k)
		cur.Cosine(1.0)
		cur.Symmetry()
		cur.Reflection(rho, rho)
		cur.Curvature(-k, -k)
		cur.InverseProjection(wr)

		if glog.V(2) {
			if !cur.IsPositiveSemidefinite(1e-9) {
				glog.Warningf("covariance left the PSD cone at depth %d on %q:\n%v", depth, elt.Name, cur)
			}
		}

		curRay = ray.Ray{Point: hit.P, Slope: wr}
	}
}
