package camera

import (
	"testing"

	"covtrace/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestStrata(t *testing.T) {
	want := [4]Stratum{
		{FX: 0.25, FY: 0.25},
		{FX: 0.75, FY: 0.25},
		{FX: 0.25, FY: 0.75},
		{FX: 0.75, FY: 0.75},
	}
	if diff := cmp.Diff(Strata(), want); diff != "" {
		t.Errorf("Unexpected strata; diff (-got +want)\n%s", diff)
	}
}

func TestImageRow(t *testing.T) {
	c := CornellCamera(16, 8)
	if got := c.ImageRow(0); got != 7 {
		t.Errorf("ImageRow(0) = %d, want 7", got)
	}
	if got := c.ImageRow(7); got != 0 {
		t.Errorf("ImageRow(7) = %d, want 0", got)
	}
}

func TestCenterRayLooksAlongEye(t *testing.T) {
	c := CornellCamera(512, 512)
	got := c.Direction(256, 256, 0, 0)
	if diff := cmp.Diff(got, c.Eye, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Image centre does not look along the eye; diff (-got +want)\n%s", diff)
	}
}

func TestPixelFrameIsOrthonormal(t *testing.T) {
	c := CornellCamera(512, 512)
	u, v, d := c.PixelFrame(200, 210)

	got := []float64{u.Norm(), v.Norm(), d.Norm(), vec3.IProd(u, d), vec3.IProd(v, d)}
	want := []float64{1, 1, 1, 0, 0}
	if diff := cmp.Diff(got, want, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Pixel frame is not orthonormal to the ray; diff (-got +want)\n%s", diff)
	}
}
