package scene

import (
	"covtrace/contact"
	"covtrace/geometry"
	"covtrace/material"
	"covtrace/ray"
	"covtrace/vmath/vec3"
)

// Descriptor is the data needed to place one sphere in a scene.
type Descriptor struct {
	Name     string
	Center   vec3.T
	Radius   float64
	Material material.Material
}

type SceneElement struct {
	Name        string
	TheGeometry *geometry.Sphere
	TheMaterial material.Material
}

// Scene is an ordered set of spheres.  It is read-only once built, so any
// number of goroutines may query it.
type Scene struct {
	Elements []*SceneElement
}

// New builds a scene from descriptors, preserving their order as element ids.
func New(descriptors []Descriptor) *Scene {
	s := &Scene{}
	for _, d := range descriptors {
		s.AddElement(&SceneElement{
			Name: d.Name,
			TheGeometry: &geometry.Sphere{
				Center: d.Center,
				Radius: d.Radius,
			},
			TheMaterial: d.Material,
		})
	}
	return s
}

func (s *Scene) AddElement(e *SceneElement) int {
	s.Elements = append(s.Elements, e)
	return len(s.Elements) - 1
}

// farAway bounds the distances Intersect will report.
const farAway = 1e20

// Intersect returns the id of the nearest element hit by r and the distance
// to it.  The bool is false on a miss.
func (s *Scene) Intersect(r ray.Ray) (int, float64, bool) {
	minT := farAway
	minIndex := -1
	for i, elt := range s.Elements {
		if t, ok := elt.TheGeometry.Intersect(r); ok && t < minT {
			minT = t
			minIndex = i
		}
	}
	if minIndex == -1 {
		return -1, 0, false
	}
	return minIndex, minT, true
}

// SceneRayIntersect is Intersect plus the hit geometry.  A miss yields
// contact.ContactNaN() and index -1.
func (s *Scene) SceneRayIntersect(r ray.Ray) (contact.Contact, int) {
	i, t, ok := s.Intersect(r)
	if !ok {
		return contact.ContactNaN(), -1
	}
	sphere := s.Elements[i].TheGeometry
	p := r.Eval(t)
	return contact.New(r, t, sphere.Normal(p)), i
}
