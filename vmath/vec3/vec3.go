package vec3

import (
	"math"
)

type T [3]float64

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize returns v scaled to unit length.  The zero vector normalizes to
// itself.
func Normalize(v T) T {
	l := v.Norm()
	if l == 0 {
		return T{}
	}
	return T{
		v[0] / l,
		v[1] / l,
		v[2] / l,
	}
}

func AddVV(a, b T) T {
	return T{
		a[0] + b[0],
		a[1] + b[1],
		a[2] + b[2],
	}
}

func SubVV(a, b T) T {
	return T{
		a[0] - b[0],
		a[1] - b[1],
		a[2] - b[2],
	}
}

func MulVS(a T, b float64) T {
	return T{
		a[0] * b,
		a[1] * b,
		a[2] * b,
	}
}

// MulVV is the componentwise product.  Colors are composed with it.
func MulVV(a, b T) T {
	return T{
		a[0] * b[0],
		a[1] * b[1],
		a[2] * b[2],
	}
}

func DivVS(a T, b float64) T {
	return T{
		a[0] / b,
		a[1] / b,
		a[2] / b,
	}
}

func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Reject returns the component of b that is orthogonal to a.
func Reject(a, b T) T {
	l := a.Norm()
	if l == 0 {
		return b
	}
	return SubVV(b, MulVS(a, IProd(a, b)/(l*l)))
}

// Reflect mirrors the incoming direction a about the plane with normal n.
func Reflect(a, n T) T {
	return SubVV(a, MulVS(n, 2*IProd(a, n)))
}

// MaxComponent returns the largest of the three components.
func MaxComponent(v T) float64 {
	return math.Max(v[0], math.Max(v[1], v[2]))
}

func IsFinite(v T) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// OrthonormalBasis completes the unit vector w into a right-handed frame
// (u, v, w).
func OrthonormalBasis(w T) (T, T) {
	a := T{1, 0, 0}
	if math.Abs(w[0]) > 0.1 {
		a = T{0, 1, 0}
	}
	u := Normalize(CProd(a, w))
	v := CProd(w, u)
	return u, v
}

// FromBasis returns a*u + b*v + c*w.
func FromBasis(u, v, w T, a, b, c float64) T {
	return T{
		a*u[0] + b*v[0] + c*w[0],
		a*u[1] + b*v[1] + c*w[1],
		a*u[2] + b*v[2] + c*w[2],
	}
}

// CosineHemisphere maps two uniform samples in [0, 1) to a cosine-weighted
// direction on the hemisphere about the unit normal.
func CosineHemisphere(normal T, u1, u2 float64) T {
	phi := 2 * math.Pi * u1
	r := math.Sqrt(u2)
	u, v := OrthonormalBasis(normal)
	return Normalize(FromBasis(u, v, normal, r*math.Cos(phi), r*math.Sin(phi), math.Sqrt(1-u2)))
}

// CosinePowerLobe maps two uniform samples in [0, 1) to a direction whose
// density about axis is proportional to cos^exponent.
func CosinePowerLobe(axis T, exponent, u1, u2 float64) T {
	phi := 2 * math.Pi * u1
	cosine := math.Pow(u2, 1/(exponent+1))
	sine := math.Sqrt(math.Max(0, 1-cosine*cosine))
	u, v := OrthonormalBasis(axis)
	return Normalize(FromBasis(u, v, axis, sine*math.Cos(phi), sine*math.Sin(phi), cosine))
}
