package camera

import (
	"covtrace/ray"
	"covtrace/vmath/vec3"
)

// PinholeCamera shoots rays from Center through an image plane spanned by CX
// (columns) and CY (rows, bottom to top) at unit distance along Eye.
type PinholeCamera struct {
	Center vec3.T
	Eye    vec3.T
	CX     vec3.T
	CY     vec3.T

	Cols int
	Rows int
}

// New builds a camera for a cols x rows image.  fov scales the image plane.
func New(center, eye vec3.T, fov float64, cols, rows int) *PinholeCamera {
	eye = vec3.Normalize(eye)
	cx := vec3.T{float64(cols) * fov / float64(rows), 0, 0}
	cy := vec3.MulVS(vec3.Normalize(vec3.CProd(cx, eye)), fov)
	return &PinholeCamera{
		Center: center,
		Eye:    eye,
		CX:     cx,
		CY:     cy,
		Cols:   cols,
		Rows:   rows,
	}
}

// CornellCamera is the camera looking into scene.CornellSpheres.
func CornellCamera(cols, rows int) *PinholeCamera {
	eye := vec3.Normalize(vec3.T{0, -0.042612, -1})
	center := vec3.AddVV(vec3.T{50, 52, 295.6}, vec3.MulVS(eye, 140))
	return New(center, eye, 1.2, cols, rows)
}

// Stratum is a fixed sub-pixel offset, in pixel units.
type Stratum struct {
	FX, FY float64
}

// Strata returns the four sub-pixel sample positions, one per quadrant.
func Strata() [4]Stratum {
	var s [4]Stratum
	i := 0
	for sy := 0; sy < 2; sy++ {
		for sx := 0; sx < 2; sx++ {
			s[i] = Stratum{
				FX: (float64(sx) + 0.5) / 2,
				FY: (float64(sy) + 0.5) / 2,
			}
			i++
		}
	}
	return s
}

// Direction is the unit direction through image position (col+fx, row+fy),
// with row counted from the bottom of the image.
func (c *PinholeCamera) Direction(col, row int, fx, fy float64) vec3.T {
	a := (fx+float64(col))/float64(c.Cols) - 0.5
	b := (fy+float64(row))/float64(c.Rows) - 0.5
	return vec3.Normalize(vec3.AddVV(vec3.AddVV(vec3.MulVS(c.CX, a), vec3.MulVS(c.CY, b)), c.Eye))
}

func (c *PinholeCamera) ImageToRay(col, row int, s Stratum) ray.Ray {
	return ray.Ray{
		Point: c.Center,
		Slope: c.Direction(col, row, s.FX, s.FY),
	}
}

// PixelFrame returns the image-plane axes made orthogonal to the ray through
// the centre of pixel (col, row), together with that ray's direction.
func (c *PinholeCamera) PixelFrame(col, row int) (u, v, t vec3.T) {
	t = c.Direction(col, row, 0.5, 0.5)
	u = vec3.Normalize(vec3.Reject(t, vec3.Normalize(c.CX)))
	v = vec3.Normalize(vec3.Reject(t, vec3.Normalize(c.CY)))
	return u, v, t
}

// ImageRow converts a bottom-up camera row into a top-down image row.
func (c *PinholeCamera) ImageRow(row int) int {
	return c.Rows - row - 1
}
