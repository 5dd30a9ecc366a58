package train

import (
	"context"
	"math/rand"

	"github.com/ChizhovVadim/churnann/internal/domain"
	"github.com/ChizhovVadim/churnann/internal/ml"
	"github.com/pkg/errors"
)

var ErrBadParams = errors.New("bad hyperparameters")

// Classifier pairs a freshly initialized Model with the hyperparameters it is fitted with.
type Classifier struct {
	Params domain.Params
	Model  *Model
	rnd    *rand.Rand
}

func NewClassifier(params domain.Params, seed int64) (*Classifier, error) {
	if params.BatchSize <= 0 {
		return nil, errors.Wrapf(ErrBadParams, "batch size %d", params.BatchSize)
	}
	if params.Epochs <= 0 {
		return nil, errors.Wrapf(ErrBadParams, "epochs %d", params.Epochs)
	}
	optimizer, err := ml.NewOptimizer(params.Optimizer)
	if err != nil {
		return nil, err
	}
	var rnd = rand.New(rand.NewSource(seed))
	return &Classifier{
		Params: params,
		Model:  NewModel(rnd, optimizer),
		rnd:    rnd,
	}, nil
}

func (c *Classifier) Fit(ctx context.Context, samples []domain.Sample) error {
	return Fit(ctx, c.Model, samples, c.Params.BatchSize, c.Params.Epochs, c.rnd)
}

// Score is the accuracy on samples.
func (c *Classifier) Score(samples []domain.Sample) float64 {
	return Accuracy(c.Model, samples)
}
