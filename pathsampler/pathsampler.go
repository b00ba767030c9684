// Package pathsampler draws indirect-bounce endpoints for a reconstruction
// filter.
//
// Each sample follows a random path a fixed number of bounces deep and reports
// where it ended together with the product of BSDF·cos/pdf terms picked up on
// the way.  Emitted light is never accumulated: the result is a weighted point
// set for density estimation, not a radiance estimate.
package pathsampler

import (
	"math/rand"

	"covtrace/material"
	"covtrace/ray"
	"covtrace/scene"
	"covtrace/vmath/vec3"
)

// PosFilter is the terminal position of one path and its throughput.  Hit is
// false for a path that left the scene or was terminated; its position is
// then meaningless.
type PosFilter struct {
	Position   vec3.T
	Throughput vec3.T
	Hit        bool
}

// Valid reports whether the path reached its terminal surface.  Its
// throughput may still be zero.
func (p PosFilter) Valid() bool {
	return p.Hit
}

// DefaultMaxDepth is the bounce budget used when none is given.
const DefaultMaxDepth = 2

// Sampler traces paths through Scene.  It holds no mutable state; randomness
// comes from the generator handed to Sample.
type Sampler struct {
	Scene    *scene.Scene
	MaxDepth int
}

func New(s *scene.Scene, maxDepth int) *Sampler {
	return &Sampler{
		Scene:    s,
		MaxDepth: maxDepth,
	}
}

// Sample follows r starting at the given depth.  A hit at MaxDepth ends the
// path with unit throughput; shallower hits sample the struck material and
// continue.
func (s *Sampler) Sample(r ray.Ray, depth int, rng *rand.Rand) PosFilter {
	throughput := vec3.T{1, 1, 1}
	curRay := r

	for ; ; depth++ {
		hit, idx := s.Scene.SceneRayIntersect(curRay)
		if idx == -1 {
			return PosFilter{}
		}

		if depth >= s.MaxDepth {
			return PosFilter{
				Position:   hit.P,
				Throughput: throughput,
				Hit:        true,
			}
		}

		mtl := s.Scene.Elements[idx].TheMaterial
		u := vec3.T{rng.Float64(), rng.Float64(), rng.Float64()}
		wo := vec3.MulVS(curRay.Slope, -1)
		wi, pdf := mtl.Sample(wo, hit.NL, u)

		f, ok := material.Estimate(mtl, wi, wo, hit.NL, pdf)
		if !ok {
			return PosFilter{}
		}
		throughput = vec3.MulVV(throughput, f)

		curRay = ray.New(hit.P, wi)
	}
}
