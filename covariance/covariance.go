// Package covariance tracks the second-order statistics of a ray bundle in a
// local 4D phase space.
//
// The four coordinates are the bundle's spatial offsets (x, y) and angular
// offsets (θx, θy) measured against a local frame: X and Y span the
// cross-section and Z is the propagation direction (or, after a Projection,
// the surface normal).  Every operator below, except FlipSpatialCorrelation,
// maps a positive semidefinite matrix to a positive semidefinite matrix.
package covariance

import (
	"fmt"
	"math"

	"covtrace/vmath/vec3"

	"gonum.org/v1/gonum/mat"
)

// Indices into the 4D phase space.
const (
	X = iota
	Y
	ThetaX
	ThetaY

	dims = 4
)

// minCosine bounds the foreshortening factor so a grazing projection stays
// finite.
const minCosine = 1e-4

// Covariance4D is a symmetric 4x4 covariance matrix attached to a frame.
type Covariance4D struct {
	Matrix *mat.SymDense

	X, Y, Z vec3.T
}

// New returns a covariance with the given packed lower-triangular entries
// (row-major: xx, xy, yy, xθx, yθx, θxθx, xθy, yθy, θxθy, θyθy) whose frame
// has Z along z.
func New(packed [10]float64, z vec3.T) *Covariance4D {
	z = vec3.Normalize(z)
	x, y := vec3.OrthonormalBasis(z)
	return NewWithFrame(packed, x, y, z)
}

// NewWithFrame is like New but takes the cross-section axes too.  x and y
// need to be orthonormal and orthogonal to z.
func NewWithFrame(packed [10]float64, x, y, z vec3.T) *Covariance4D {
	m := mat.NewSymDense(dims, nil)
	for i := 0; i < dims; i++ {
		for j := 0; j <= i; j++ {
			m.SetSym(i, j, packed[packedIndex(i, j)])
		}
	}
	return &Covariance4D{
		Matrix: m,
		X:      x,
		Y:      y,
		Z:      z,
	}
}

// Diagonal returns a covariance with independent variance v in every
// dimension.
func Diagonal(v float64, x, y, z vec3.T) *Covariance4D {
	return NewWithFrame([10]float64{v, 0, v, 0, 0, v, 0, 0, 0, v}, x, y, z)
}

// Empty is the covariance of nothing: all zero, no frame.
func Empty() *Covariance4D {
	return &Covariance4D{Matrix: mat.NewSymDense(dims, nil)}
}

func packedIndex(i, j int) int {
	if i < j {
		i, j = j, i
	}
	return i*(i+1)/2 + j
}

// Packed returns the lower-triangular entries in the order accepted by New.
func (c *Covariance4D) Packed() [10]float64 {
	var p [10]float64
	for i := 0; i < dims; i++ {
		for j := 0; j <= i; j++ {
			p[packedIndex(i, j)] = c.Matrix.At(i, j)
		}
	}
	return p
}

func (c *Covariance4D) Clone() *Covariance4D {
	m := mat.NewSymDense(dims, nil)
	m.CopySym(c.Matrix)
	return &Covariance4D{
		Matrix: m,
		X:      c.X,
		Y:      c.Y,
		Z:      c.Z,
	}
}

// Spatial returns the spatial block (xx, xy, yy).
func (c *Covariance4D) Spatial() (xx, xy, yy float64) {
	return c.Matrix.At(X, X), c.Matrix.At(X, Y), c.Matrix.At(Y, Y)
}

func (c *Covariance4D) String() string {
	return fmt.Sprintf("%v", mat.Formatted(c.Matrix, mat.Squeeze()))
}

// congruence replaces the matrix with T Σ Tᵀ.
func (c *Covariance4D) congruence(t *mat.Dense) {
	var left, full mat.Dense
	left.Mul(t, c.Matrix)
	full.Mul(&left, t.T())
	c.setSymmetrized(&full)
}

// setSymmetrized stores the symmetric part of m, removing round-off
// asymmetry.
func (c *Covariance4D) setSymmetrized(m mat.Matrix) {
	for i := 0; i < dims; i++ {
		for j := 0; j <= i; j++ {
			c.Matrix.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
}

func identity() *mat.Dense {
	t := mat.NewDense(dims, dims, nil)
	for i := 0; i < dims; i++ {
		t.Set(i, i, 1)
	}
	return t
}

// Travel propagates the bundle a distance d through free space.  Angles are
// unchanged and positions shear by d·θ, so positional variance grows.
func (c *Covariance4D) Travel(d float64) {
	t := identity()
	t.Set(X, ThetaX, d)
	t.Set(Y, ThetaY, d)
	c.congruence(t)
}

// Rotate turns the frame about Z by alpha radians.  Spatial and angular
// coordinates rotate together.
func (c *Covariance4D) Rotate(alpha float64) {
	cs, sn := math.Cos(alpha), math.Sin(alpha)

	t := identity()
	for _, base := range []int{X, ThetaX} {
		t.Set(base, base, cs)
		t.Set(base, base+1, sn)
		t.Set(base+1, base, -sn)
		t.Set(base+1, base+1, cs)
	}
	c.congruence(t)

	x := vec3.AddVV(vec3.MulVS(c.X, cs), vec3.MulVS(c.Y, sn))
	y := vec3.AddVV(vec3.MulVS(c.X, -sn), vec3.MulVS(c.Y, cs))
	c.X, c.Y = x, y
}

// alignTo rotates the frame so that X is orthogonal to axis, leaving Y as the
// only cross-section axis that tilts against it.
func (c *Covariance4D) alignTo(axis vec3.T) {
	cx := vec3.IProd(c.X, axis)
	cy := vec3.IProd(c.Y, axis)
	if cx == 0 {
		return
	}
	c.Rotate(math.Atan2(-cx, cy))
}

// scaleY stretches the spatial y coordinate by s.
func (c *Covariance4D) scaleY(s float64) {
	t := identity()
	t.Set(Y, Y, s)
	c.congruence(t)
}

func clampedCosine(a, b vec3.T) float64 {
	return math.Max(math.Abs(vec3.IProd(a, b)), minCosine)
}

// tangentAxis returns y projected into the plane with normal n, falling back
// to n × x when y is (nearly) parallel to n.
func tangentAxis(y, n, x vec3.T) vec3.T {
	t := vec3.Reject(n, y)
	if t.Norm() < minCosine {
		return vec3.Normalize(vec3.CProd(n, x))
	}
	return vec3.Normalize(t)
}

// Projection maps the ray-space cross-section onto the plane with normal n.
// The footprint stretches by 1/|cos| along the tilted axis and the frame's Z
// becomes n.
func (c *Covariance4D) Projection(n vec3.T) {
	c.alignTo(n)
	c.scaleY(1 / clampedCosine(c.Z, n))

	y := tangentAxis(c.Y, n, c.X)
	c.Y = y
	c.Z = n
}

// InverseProjection maps a surface-space covariance back into the
// cross-section of a ray leaving along d.
func (c *Covariance4D) InverseProjection(d vec3.T) {
	c.alignTo(d)
	c.scaleY(clampedCosine(c.Z, d))

	y := tangentAxis(c.Y, d, c.X)
	c.Y = y
	c.Z = d
}

// Curvature couples angle to position for a surface with principal
// curvatures kx and ky along the frame axes: θ += k·x.
func (c *Covariance4D) Curvature(kx, ky float64) {
	t := identity()
	t.Set(ThetaX, X, kx)
	t.Set(ThetaY, Y, ky)
	c.congruence(t)
}

// Cosine adds the angular spread of the foreshortening factor, f per axis.
func (c *Covariance4D) Cosine(f float64) {
	c.addAngular(f, f)
}

// Symmetry mirrors the angular axes, as a reflection about the normal does.
func (c *Covariance4D) Symmetry() {
	t := identity()
	t.Set(ThetaX, ThetaX, -1)
	t.Set(ThetaY, ThetaY, -1)
	c.congruence(t)
}

// Reflection widens the angular spread by the BSDF's angular blur along each
// axis.
func (c *Covariance4D) Reflection(rhoX, rhoY float64) {
	c.addAngular(rhoX, rhoY)
}

func (c *Covariance4D) addAngular(ax, ay float64) {
	c.Matrix.SetSym(ThetaX, ThetaX, c.Matrix.At(ThetaX, ThetaX)+ax)
	c.Matrix.SetSym(ThetaY, ThetaY, c.Matrix.At(ThetaY, ThetaY)+ay)
}

// FlipSpatialCorrelation negates the xy term.  This converts a covariance
// propagated forward from the eye into the backward convention used when it
// is compared against image-space offsets.  The result need not be PSD.
func (c *Covariance4D) FlipSpatialCorrelation() {
	c.Matrix.SetSym(X, Y, -c.Matrix.At(X, Y))
}

// IsPositiveSemidefinite reports whether every eigenvalue is at least -tol
// times the largest eigenvalue magnitude.
func (c *Covariance4D) IsPositiveSemidefinite(tol float64) bool {
	var es mat.EigenSym
	if ok := es.Factorize(c.Matrix, false); !ok {
		return false
	}
	values := es.Values(nil)

	scale := 0.0
	for _, v := range values {
		scale = math.Max(scale, math.Abs(v))
	}
	for _, v := range values {
		if v < -tol*scale {
			return false
		}
	}
	return true
}
