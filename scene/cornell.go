package scene

import (
	"covtrace/material"
	"covtrace/vmath/vec3"
)

// CornellSpheres describes the closed box the renderer draws: six huge
// spheres standing in for the walls, a glossy "mirror" ball, a white
// "glass" ball and a spherical ceiling light.
func CornellSpheres() []Descriptor {
	grey := &material.Diffuse{Albedo: vec3.T{.75, .75, .75}}

	return []Descriptor{
		{
			Name:     "left",
			Center:   vec3.T{1e5 + 1, 40.8, 81.6},
			Radius:   1e5,
			Material: &material.Diffuse{Albedo: vec3.T{.75, .25, .25}},
		},
		{
			Name:     "right",
			Center:   vec3.T{-1e5 + 99, 40.8, 81.6},
			Radius:   1e5,
			Material: &material.Diffuse{Albedo: vec3.T{.25, .25, .75}},
		},
		{
			Name:     "back",
			Center:   vec3.T{50, 40.8, 1e5},
			Radius:   1e5,
			Material: grey,
		},
		{
			Name:     "front",
			Center:   vec3.T{50, 40.8, -1e5 + 170},
			Radius:   1e5,
			Material: &material.Diffuse{},
		},
		{
			Name:     "floor",
			Center:   vec3.T{50, 1e5, 81.6},
			Radius:   1e5,
			Material: grey,
		},
		{
			Name:     "ceiling",
			Center:   vec3.T{50, -1e5 + 81.6, 81.6},
			Radius:   1e5,
			Material: grey,
		},
		{
			Name:   "mirror",
			Center: vec3.T{27, 16.5, 47},
			Radius: 16.5,
			Material: &material.Glossy{
				Ks: vec3.T{.999, .999, .999},
				N:  1000,
			},
		},
		{
			Name:     "glass",
			Center:   vec3.T{73, 16.5, 78},
			Radius:   16.5,
			Material: &material.Diffuse{Albedo: vec3.T{.999, .999, .999}},
		},
		{
			Name:     "light",
			Center:   vec3.T{50, 681.6 - .27, 81.6},
			Radius:   600,
			Material: &material.Emitter{Emission: vec3.T{12, 12, 12}},
		},
	}
}
