package domain

import "fmt"

// Sample is one scaled feature row with its binary label.
type Sample struct {
	Features []float64
	Target   float64
}

// Params is one point of the hyperparameter grid.
type Params struct {
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
	Epochs    int    `json:"epochs" yaml:"epochs"`
	Optimizer string `json:"optimizer" yaml:"optimizer"`
}

func (p Params) String() string {
	return fmt.Sprintf("batch_size=%d epochs=%d optimizer=%s", p.BatchSize, p.Epochs, p.Optimizer)
}
