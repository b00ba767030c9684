package reconstruct

import (
	"fmt"
)

// FootprintMode selects how the reference covariance shapes the footprint
// channel.
type FootprintMode int

const (
	// FootprintIsotropic uses a unit-variance falloff in the reference
	// tangent plane.
	FootprintIsotropic FootprintMode = iota

	// FootprintCovariance weights tangent-plane offsets by the reference
	// covariance's spatial block.
	FootprintCovariance
)

func (m FootprintMode) String() string {
	switch m {
	case FootprintIsotropic:
		return "isotropic"
	case FootprintCovariance:
		return "covariance"
	}
	return fmt.Sprintf("FootprintMode(%d)", int(m))
}

func ParseFootprintMode(s string) (FootprintMode, error) {
	switch s {
	case "isotropic":
		return FootprintIsotropic, nil
	case "covariance":
		return FootprintCovariance, nil
	}
	return 0, fmt.Errorf("unknown footprint mode %q (want isotropic or covariance)", s)
}

type Options struct {
	// SamplesPerPixel is the total number of path samples drawn at the
	// reference pixel, split evenly over the four strata.
	SamplesPerPixel int

	MaxDepth int

	// The reference pixel, with the row counted from the bottom.
	ReferenceCol int
	ReferenceRow int

	// Sigma is the bandwidth of the density kernel, in scene units.
	Sigma float64

	Footprint FootprintMode

	// Workers bounds reconstruction concurrency.  Zero means one per CPU.
	Workers int

	// MarkReference paints the reference pixel green.
	MarkReference bool
}

func DefaultOptions() Options {
	return Options{
		SamplesPerPixel: 4,
		MaxDepth:        2,
		ReferenceCol:    200,
		ReferenceRow:    210,
		Sigma:           0.5,
		Footprint:       FootprintIsotropic,
		MarkReference:   true,
	}
}

// SamplesPerStratum is never less than one.
func (o Options) SamplesPerStratum() int {
	if s := o.SamplesPerPixel / 4; s > 0 {
		return s
	}
	return 1
}

func (o Options) validate(cols, rows int) error {
	if o.SamplesPerPixel < 0 {
		return fmt.Errorf("samples per pixel must not be negative, got %d", o.SamplesPerPixel)
	}
	if o.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", o.MaxDepth)
	}
	if !(o.Sigma > 0) {
		return fmt.Errorf("sigma must be positive, got %v", o.Sigma)
	}
	if o.ReferenceCol < 0 || o.ReferenceCol >= cols || o.ReferenceRow < 0 || o.ReferenceRow >= rows {
		return fmt.Errorf("reference pixel (%d, %d) is outside the %dx%d image", o.ReferenceCol, o.ReferenceRow, cols, rows)
	}
	return nil
}
