package material

import (
	"math"
	"math/rand"
	"testing"

	"covtrace/vmath/vec3"

	"gonum.org/v1/gonum/stat"
)

// meanEstimate averages the red channel of Estimate over n samples.
func meanEstimate(t *testing.T, m Material, wo, normal vec3.T, n int) float64 {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	values := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		u := vec3.T{rng.Float64(), rng.Float64(), rng.Float64()}
		wi, pdf := m.Sample(wo, normal, u)
		f, ok := Estimate(m, wi, wo, normal, pdf)
		if ok && (f[0] < 0 || !vec3.IsFinite(f)) {
			t.Fatalf("Estimate returned %v for wi=%v pdf=%v", f, wi, pdf)
		}
		values = append(values, f[0])
	}
	return stat.Mean(values, nil)
}

func TestDiffuseEstimateConvergesToAlbedo(t *testing.T) {
	m := &Diffuse{Albedo: vec3.T{0.6, 0.6, 0.6}}
	normal := vec3.T{0, 0, 1}
	wo := vec3.Normalize(vec3.T{0.3, 0, 1})

	if got := meanEstimate(t, m, wo, normal, 10000); math.Abs(got-0.6) > 0.05*0.6 {
		t.Errorf("Mean diffuse estimate = %v, want within 5%% of 0.6", got)
	}
}

func TestGlossyEstimateAtNormalIncidence(t *testing.T) {
	// At normal incidence the normalized lobe integrates to exactly Ks, so
	// the expected estimate is Kd + Ks.
	m := &Glossy{
		Kd: vec3.T{0.25, 0.25, 0.25},
		Ks: vec3.T{0.5, 0.5, 0.5},
		N:  20,
	}
	normal := vec3.T{0, 0, 1}

	if got := meanEstimate(t, m, normal, normal, 20000); math.Abs(got-0.75) > 0.05*0.75 {
		t.Errorf("Mean glossy estimate = %v, want within 5%% of 0.75", got)
	}
}

func TestMirror(t *testing.T) {
	m := &Mirror{}
	normal := vec3.T{0, 1, 0}
	wo := vec3.Normalize(vec3.T{0, 1, 1})

	wi, pdf := m.Sample(wo, normal, vec3.T{})
	if pdf != 1 {
		t.Errorf("Mirror pdf = %v, want 1", pdf)
	}
	if want := vec3.Normalize(vec3.T{0, 1, -1}); vec3.SubVV(wi, want).Norm() > 1e-12 {
		t.Errorf("Mirror direction = %v, want %v", wi, want)
	}
	if got := m.Reflectance(wi, wo, normal); got != (vec3.T{1, 1, 1}) {
		t.Errorf("Reflectance in the mirror direction = %v, want (1, 1, 1)", got)
	}
	if got := m.Reflectance(normal, wo, normal); got != (vec3.T{}) {
		t.Errorf("Reflectance off the mirror direction = %v, want zero", got)
	}
}

func TestMirrorEstimateIsCosine(t *testing.T) {
	m := &Mirror{}
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 1000; i++ {
		normal := vec3.Normalize(vec3.T{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()})
		wo := vec3.CosineHemisphere(normal, rng.Float64(), rng.Float64())
		u := vec3.T{rng.Float64(), rng.Float64(), rng.Float64()}

		wi, pdf := m.Sample(wo, normal, u)
		f, ok := Estimate(m, wi, wo, normal, pdf)
		if !ok {
			t.Fatalf("Mirror estimate rejected for wo=%v normal=%v", wo, normal)
		}
		if !vec3.IsFinite(f) {
			t.Fatalf("Mirror estimate %v is not finite for wo=%v normal=%v", f, wo, normal)
		}
		want := vec3.IProd(wo, normal)
		for c := 0; c < 3; c++ {
			if f[c] < 0 || math.Abs(f[c]-want) > 1e-12 {
				t.Fatalf("Mirror estimate %v for wo=%v normal=%v, want %v in every channel", f, wo, normal, want)
			}
		}
	}
}

func TestEmitterEndsPaths(t *testing.T) {
	m := &Emitter{Emission: vec3.T{12, 12, 12}}
	normal := vec3.T{0, 0, 1}

	wi, pdf := m.Sample(normal, normal, vec3.T{0.5, 0.5, 0.5})
	if pdf != 0 {
		t.Errorf("Emitter pdf = %v, want 0", pdf)
	}
	if _, ok := Estimate(m, wi, normal, normal, pdf); ok {
		t.Errorf("Estimate accepted a zero pdf")
	}
}

func TestEstimateRejectsDegeneratePdf(t *testing.T) {
	m := &Diffuse{Albedo: vec3.T{1, 1, 1}}
	normal := vec3.T{0, 0, 1}
	for _, pdf := range []float64{0, -1, math.Inf(1), math.NaN()} {
		if f, ok := Estimate(m, normal, normal, normal, pdf); ok || f != (vec3.T{}) {
			t.Errorf("Estimate with pdf %v = (%v, %v), want (zero, false)", pdf, f, ok)
		}
	}
}
