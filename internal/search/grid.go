package search

import (
	"github.com/ChizhovVadim/churnann/internal/domain"
	"github.com/pkg/errors"
)

var ErrEmptyGrid = errors.New("empty parameter grid")

type Grid struct {
	BatchSizes []int    `json:"batch_size" yaml:"batch_size"`
	Epochs     []int    `json:"epochs" yaml:"epochs"`
	Optimizers []string `json:"optimizer" yaml:"optimizer"`
}

func DefaultGrid() Grid {
	return Grid{
		BatchSizes: []int{25, 32},
		Epochs:     []int{100, 500},
		Optimizers: []string{"adam", "rmsprop"},
	}
}

// Candidates enumerates the grid with the optimizer varying fastest and the
// batch size slowest.
func (g Grid) Candidates() []domain.Params {
	var result = make([]domain.Params, 0, len(g.BatchSizes)*len(g.Epochs)*len(g.Optimizers))
	for _, batchSize := range g.BatchSizes {
		for _, epochs := range g.Epochs {
			for _, optimizer := range g.Optimizers {
				result = append(result, domain.Params{
					BatchSize: batchSize,
					Epochs:    epochs,
					Optimizer: optimizer,
				})
			}
		}
	}
	return result
}

func (g Grid) Validate() error {
	if len(g.BatchSizes) == 0 || len(g.Epochs) == 0 || len(g.Optimizers) == 0 {
		return errors.WithStack(ErrEmptyGrid)
	}
	for _, v := range g.BatchSizes {
		if v <= 0 {
			return errors.Errorf("batch size must be positive, got %d", v)
		}
	}
	for _, v := range g.Epochs {
		if v <= 0 {
			return errors.Errorf("epochs must be positive, got %d", v)
		}
	}
	return nil
}
