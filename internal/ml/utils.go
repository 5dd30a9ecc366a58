package ml

import (
	"math/rand"
)

// InitUniform fills data from U(min, max).
func InitUniform(rnd *rand.Rand, data []float64, min, max float64) {
	for i := range data {
		data[i] = min + rnd.Float64()*(max-min)
	}
}
