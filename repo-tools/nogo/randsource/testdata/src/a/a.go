package a

import (
	"math/rand"
	mrand "math/rand"
)

func good(seed int64) float64 {
	rng := rand.New(rand.NewSource(seed))
	return rng.Float64() + float64(rng.Intn(4))
}

func bad() float64 {
	rand.Seed(1)                      // want `math/rand.Seed uses the global source`
	v := rand.Float64()               // want `math/rand.Float64 uses the global source`
	return v + float64(mrand.Intn(4)) // want `math/rand.Intn uses the global source`
}

type sampler struct {
	rng *rand.Rand
}

func (s *sampler) draw() float64 {
	return s.rng.Float64()
}
