package train

import (
	"context"
	"math/rand"

	"github.com/ChizhovVadim/churnann/internal/domain"
	"github.com/pkg/errors"
)

var ErrEmptyDataset = errors.New("empty dataset")

// Fit trains m for epochs passes over samples. Every epoch visits the
// samples in a new random order; the last batch may be smaller than batchSize.
func Fit(
	ctx context.Context,
	m *Model,
	samples []domain.Sample,
	batchSize int,
	epochs int,
	rnd *rand.Rand,
) error {
	if len(samples) == 0 {
		return errors.WithStack(ErrEmptyDataset)
	}
	if batchSize <= 0 || epochs <= 0 {
		return errors.Wrapf(ErrBadParams, "batch size %d, epochs %d", batchSize, epochs)
	}
	if err := checkInput(samples); err != nil {
		return err
	}

	var order = make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	for epoch := 1; epoch <= epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		shuffle(rnd, order)
		for i := 0; i < len(order); i += batchSize {
			var batch = order[i:min(i+batchSize, len(order))]
			for _, index := range batch {
				m.Train(&samples[index], rnd)
			}
			m.ApplyGradients(len(batch))
		}
	}
	return nil
}

func shuffle(rnd *rand.Rand, order []int) {
	rnd.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
}

func Accuracy(m *Model, samples []domain.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var correct int
	for i := range samples {
		if Label(m.predict(samples[i].Features)) == samples[i].Target {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}

func AverageCost(m *Model, samples []domain.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for i := range samples {
		total += m.CalcCost(&samples[i])
	}
	return total / float64(len(samples))
}

// Label thresholds a probability at 0.5.
func Label(prob float64) float64 {
	if prob > 0.5 {
		return 1
	}
	return 0
}
