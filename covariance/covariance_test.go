package covariance

import (
	"math"
	"math/rand"
	"testing"

	"covtrace/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

// randomPSD returns A Aᵀ for a random A, with the canonical frame.
func randomPSD(rng *rand.Rand) *Covariance4D {
	a := mat.NewDense(dims, dims, nil)
	for i := 0; i < dims; i++ {
		for j := 0; j < dims; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	c := Empty()
	c.Matrix.SymOuterK(1, a)
	c.X, c.Y, c.Z = vec3.T{1, 0, 0}, vec3.T{0, 1, 0}, vec3.T{0, 0, 1}
	return c
}

func TestOperatorsPreservePSD(t *testing.T) {
	n := vec3.Normalize(vec3.T{0.3, -0.2, -1})
	out := vec3.Normalize(vec3.T{-0.1, 0.5, 1})

	steps := []struct {
		name string
		op   func(c *Covariance4D)
	}{
		{"Travel", func(c *Covariance4D) { c.Travel(37.5) }},
		{"Projection", func(c *Covariance4D) { c.Projection(n) }},
		{"Curvature", func(c *Covariance4D) { c.Curvature(0.06, 0.06) }},
		{"Cosine", func(c *Covariance4D) { c.Cosine(1) }},
		{"Symmetry", func(c *Covariance4D) { c.Symmetry() }},
		{"Reflection", func(c *Covariance4D) { c.Reflection(25, 25) }},
		{"Curvature back", func(c *Covariance4D) { c.Curvature(-0.06, -0.06) }},
		{"InverseProjection", func(c *Covariance4D) { c.InverseProjection(out) }},
		{"Rotate", func(c *Covariance4D) { c.Rotate(1.1) }},
	}

	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 20; trial++ {
		c := randomPSD(rng)
		for _, step := range steps {
			step.op(c)
			if !c.IsPositiveSemidefinite(1e-9) {
				t.Fatalf("Trial %d: matrix is not PSD after %s:\n%v", trial, step.name, c)
			}
		}
	}
}

func TestTravelOfPureAngularSpread(t *testing.T) {
	const s, d = 0.01, 50.0
	c := New([10]float64{0, 0, 0, 0, 0, s, 0, 0, 0, s}, vec3.T{0, 0, 1})
	c.Travel(d)

	got := c.Packed()
	want := [10]float64{d * d * s, 0, d * d * s, d * s, 0, s, 0, d * s, 0, s}
	if diff := cmp.Diff(got, want, approx); diff != "" {
		t.Errorf("Unexpected covariance after travel; diff (-got +want)\n%s", diff)
	}
}

func TestRotateQuarterTurn(t *testing.T) {
	c := NewWithFrame([10]float64{4, 0, 1, 0, 0, 3, 0, 0, 0, 2}, vec3.T{1, 0, 0}, vec3.T{0, 1, 0}, vec3.T{0, 0, 1})
	c.Rotate(math.Pi / 2)

	got := c.Packed()
	want := [10]float64{1, 0, 4, 0, 0, 2, 0, 0, 0, 3}
	if diff := cmp.Diff(got, want, approx); diff != "" {
		t.Errorf("Unexpected covariance after rotation; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff([]vec3.T{c.X, c.Y}, []vec3.T{{0, 1, 0}, {-1, 0, 0}}, approx); diff != "" {
		t.Errorf("Unexpected frame after rotation; diff (-got +want)\n%s", diff)
	}
}

func TestProjectionStretchesTiltedAxis(t *testing.T) {
	const phi = math.Pi / 3
	c := Diagonal(1, vec3.T{1, 0, 0}, vec3.T{0, 1, 0}, vec3.T{0, 0, 1})
	n := vec3.T{0, math.Sin(phi), -math.Cos(phi)}
	c.Projection(n)

	xx, xy, yy := c.Spatial()
	if diff := cmp.Diff([]float64{xx, xy, yy}, []float64{1, 0, 1 / (math.Cos(phi) * math.Cos(phi))}, approx); diff != "" {
		t.Errorf("Unexpected spatial block after projection; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(c.Z, n); diff != "" {
		t.Errorf("Projection did not move Z to the normal; diff (-got +want)\n%s", diff)
	}
	if d := math.Abs(vec3.IProd(c.Y, n)); d > 1e-12 {
		t.Errorf("Projected Y axis %v is not tangent to the surface", c.Y)
	}

	c.InverseProjection(vec3.T{0, 0, 1})
	if diff := cmp.Diff(c.Packed(), Diagonal(1, c.X, c.Y, c.Z).Packed(), approx); diff != "" {
		t.Errorf("InverseProjection did not undo Projection; diff (-got +want)\n%s", diff)
	}
}

func TestGrazingProjectionStaysFinite(t *testing.T) {
	c := Diagonal(1, vec3.T{1, 0, 0}, vec3.T{0, 1, 0}, vec3.T{0, 0, 1})
	c.Projection(vec3.T{0, 1, 0})

	for _, v := range c.Packed() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("Grazing projection produced a non-finite covariance:\n%v", c)
		}
	}
}

func TestFlipSpatialCorrelation(t *testing.T) {
	packed := [10]float64{2, 0.5, 1, 0.1, 0.2, 3, 0.3, 0.4, 0.5, 4}
	c := New(packed, vec3.T{0, 0, 1})
	c.FlipSpatialCorrelation()

	want := packed
	want[1] = -0.5
	if diff := cmp.Diff(c.Packed(), want); diff != "" {
		t.Errorf("FlipSpatialCorrelation changed more than xy; diff (-got +want)\n%s", diff)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := Diagonal(1, vec3.T{1, 0, 0}, vec3.T{0, 1, 0}, vec3.T{0, 0, 1})
	d := c.Clone()
	d.Travel(10)

	if diff := cmp.Diff(c.Packed(), Diagonal(1, c.X, c.Y, c.Z).Packed()); diff != "" {
		t.Errorf("Modifying a clone changed the covariance it was cloned from; diff (-got +want)\n%s", diff)
	}
}
