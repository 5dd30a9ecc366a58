package ml

import "math"

// Epsilon is the fuzz factor used for probability clipping and optimizer denominators.
const Epsilon = 1e-7

type IModelCost interface {
	Cost(predicted, target float64) float64
	CostPrime(predicted, target float64) float64
}

// BinaryCrossEntropyCost expects predicted to be a probability.
type BinaryCrossEntropyCost struct{}

func (*BinaryCrossEntropyCost) Cost(predicted, target float64) float64 {
	var p = clip(predicted)
	return -(target*math.Log(p) + (1-target)*math.Log(1-p))
}

func (*BinaryCrossEntropyCost) CostPrime(predicted, target float64) float64 {
	var p = clip(predicted)
	return (p - target) / (p * (1 - p))
}

func clip(p float64) float64 {
	if p < Epsilon {
		return Epsilon
	}
	if p > 1-Epsilon {
		return 1 - Epsilon
	}
	return p
}
