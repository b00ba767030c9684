package geometry

import (
	"testing"

	"covtrace/ray"
	"covtrace/vmath/vec3"
)

func TestSphereIntersect(t *testing.T) {
	s := &Sphere{Radius: 2}

	testCases := []struct {
		name   string
		query  ray.Ray
		wantOK bool
		wantT  float64
	}{
		{"from outside", ray.Ray{Point: vec3.T{-5, 0, 0}, Slope: vec3.T{1, 0, 0}}, true, 3},
		{"from inside", ray.Ray{Point: vec3.T{}, Slope: vec3.T{1, 0, 0}}, true, 2},
		{"passing by", ray.Ray{Point: vec3.T{0, 5, 0}, Slope: vec3.T{1, 0, 0}}, false, 0},
		{"pointing away", ray.Ray{Point: vec3.T{5, 0, 0}, Slope: vec3.T{1, 0, 0}}, false, 0},
		{"leaving along the normal", ray.Ray{Point: vec3.T{2, 0, 0}, Slope: vec3.T{1, 0, 0}}, false, 0},
		{"entering from the surface", ray.Ray{Point: vec3.T{2, 0, 0}, Slope: vec3.T{-1, 0, 0}}, true, 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotT, gotOK := s.Intersect(tc.query)
			if gotOK != tc.wantOK {
				t.Fatalf("Intersect hit = %v, want %v", gotOK, tc.wantOK)
			}
			if gotOK && gotT != tc.wantT {
				t.Errorf("Intersect distance = %v, want %v", gotT, tc.wantT)
			}
		})
	}
}

func TestSphereNormalAndCurvature(t *testing.T) {
	s := &Sphere{Center: vec3.T{1, 1, 1}, Radius: 4}
	if got, want := s.Normal(vec3.T{1, 5, 1}), (vec3.T{0, 1, 0}); got != want {
		t.Errorf("Normal = %v, want %v", got, want)
	}
	if got := s.Curvature(); got != 0.25 {
		t.Errorf("Curvature = %v, want 0.25", got)
	}
}
