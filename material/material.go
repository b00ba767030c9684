// Package material models surface scattering for path sampling and
// covariance propagation.
package material

import (
	"math"

	"covtrace/vmath/vec3"
)

// Material is a surface BSDF.
//
// Sample draws an incoming direction wi for the outgoing direction wo (both
// pointing away from the surface) about the shading normal n, using the three
// uniform samples in u.  The pair is chosen so that
//
//	Reflectance(wi, wo, n) * cos(wi, n) / pdf
//
// is a single-sample estimate of the BSDF's contribution.  A pdf <= 0 means
// the path ends here.
type Material interface {
	Sample(wo, n vec3.T, u vec3.T) (wi vec3.T, pdf float64)
	Reflectance(wi, wo, n vec3.T) vec3.T

	// Exponent is the glossiness of the angular lobe.  Zero for materials
	// with no lobe.
	Exponent() float64
}

// Diffuse is a Lambertian reflector.
type Diffuse struct {
	Albedo vec3.T
}

func (d *Diffuse) Sample(wo, n vec3.T, u vec3.T) (vec3.T, float64) {
	wi := vec3.CosineHemisphere(n, u[0], u[1])
	cosine := vec3.IProd(wi, n)
	if cosine <= 0 {
		return wi, 0
	}
	return wi, cosine / math.Pi
}

func (d *Diffuse) Reflectance(wi, wo, n vec3.T) vec3.T {
	if vec3.IProd(wi, n) <= 0 || vec3.IProd(wo, n) <= 0 {
		return vec3.T{}
	}
	return vec3.MulVS(d.Albedo, 1/math.Pi)
}

func (d *Diffuse) Exponent() float64 {
	return 0
}

// mirrorTolerance is how far (in cosine) a direction may stray from the exact
// mirror direction and still be treated as that direction.
const mirrorTolerance = 1e-9

// Mirror is a perfect specular reflector.  Its delta distribution is
// collapsed to a single outcome with density one.
type Mirror struct{}

func (m *Mirror) Sample(wo, n vec3.T, u vec3.T) (vec3.T, float64) {
	return vec3.Reflect(vec3.MulVS(wo, -1), n), 1
}

func (m *Mirror) Reflectance(wi, wo, n vec3.T) vec3.T {
	mirrored := vec3.Reflect(vec3.MulVS(wo, -1), n)
	if vec3.IProd(wi, mirrored) < 1-mirrorTolerance {
		return vec3.T{}
	}
	return vec3.T{1, 1, 1}
}

func (m *Mirror) Exponent() float64 {
	return 0
}

// Glossy is a normalized Phong material: a diffuse lobe weighted by Kd plus a
// cosine-power lobe about the mirror direction weighted by Ks.
type Glossy struct {
	Kd vec3.T
	Ks vec3.T
	N  float64
}

// diffuseProbability is the chance of sampling the diffuse lobe.
func (g *Glossy) diffuseProbability() float64 {
	d := vec3.MaxComponent(g.Kd)
	s := vec3.MaxComponent(g.Ks)
	if d+s <= 0 {
		return 0
	}
	return d / (d + s)
}

func (g *Glossy) Sample(wo, n vec3.T, u vec3.T) (vec3.T, float64) {
	mirrored := vec3.Reflect(vec3.MulVS(wo, -1), n)

	var wi vec3.T
	if u[2] < g.diffuseProbability() {
		wi = vec3.CosineHemisphere(n, u[0], u[1])
	} else {
		wi = vec3.CosinePowerLobe(mirrored, g.N, u[0], u[1])
	}

	if vec3.IProd(wi, n) <= 0 {
		return wi, 0
	}
	return wi, g.pdf(wi, mirrored, n)
}

func (g *Glossy) pdf(wi, mirrored, n vec3.T) float64 {
	pd := g.diffuseProbability()

	density := 0.0
	if cosine := vec3.IProd(wi, n); cosine > 0 {
		density += pd * cosine / math.Pi
	}
	if cosAlpha := vec3.IProd(wi, mirrored); cosAlpha > 0 {
		density += (1 - pd) * (g.N + 1) / (2 * math.Pi) * math.Pow(cosAlpha, g.N)
	}
	return density
}

func (g *Glossy) Reflectance(wi, wo, n vec3.T) vec3.T {
	if vec3.IProd(wi, n) <= 0 || vec3.IProd(wo, n) <= 0 {
		return vec3.T{}
	}

	result := vec3.MulVS(g.Kd, 1/math.Pi)

	mirrored := vec3.Reflect(vec3.MulVS(wo, -1), n)
	if cosAlpha := vec3.IProd(wi, mirrored); cosAlpha > 0 {
		lobe := (g.N + 2) / (2 * math.Pi) * math.Pow(cosAlpha, g.N)
		result = vec3.AddVV(result, vec3.MulVS(g.Ks, lobe))
	}
	return result
}

func (g *Glossy) Exponent() float64 {
	return g.N
}

// Emitter is a light source.  Emission is recorded but never accumulated by
// the filters, so for them an emitter only ends paths.
type Emitter struct {
	Emission vec3.T
}

func (e *Emitter) Sample(wo, n vec3.T, u vec3.T) (vec3.T, float64) {
	return vec3.T{}, 0
}

func (e *Emitter) Reflectance(wi, wo, n vec3.T) vec3.T {
	return vec3.T{}
}

func (e *Emitter) Exponent() float64 {
	return 0
}

// Estimate returns Reflectance * cos / pdf for a sampled direction, or zero
// (with false) when the sample is degenerate.
func Estimate(m Material, wi, wo, n vec3.T, pdf float64) (vec3.T, bool) {
	if !(pdf > 0) || math.IsInf(pdf, 0) {
		return vec3.T{}, false
	}
	f := vec3.MulVS(m.Reflectance(wi, wo, n), vec3.IProd(wi, n)/pdf)
	if !vec3.IsFinite(f) {
		return vec3.T{}, false
	}
	return f, true
}
