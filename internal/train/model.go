package train

import (
	"math/rand"

	"github.com/ChizhovVadim/churnann/internal/domain"
	"github.com/ChizhovVadim/churnann/internal/ml"
	"github.com/pkg/errors"
)

const (
	InputSize   = 16
	HiddenSize  = 8
	DropoutRate = 0.1
)

var ErrInputSize = errors.New("unexpected input size")

// Model is the churn classifier:
// Dense(8, relu) -> Dropout(0.1) -> Dense(8, relu) -> Dropout(0.1) -> Dense(1, sigmoid).
type Model struct {
	layers    []*Layer
	input     []Neuron
	cost      ml.IModelCost
	optimizer ml.IOptimizer
	step      int
}

func NewModel(rnd *rand.Rand, optimizer ml.IOptimizer) *Model {
	var m = newModel(optimizer)
	for _, layer := range m.layers {
		layer.InitWeightsUniform(rnd)
	}
	return m
}

func newModel(optimizer ml.IOptimizer) *Model {
	return &Model{
		layers: []*Layer{
			NewLayer(InputSize, HiddenSize, &ml.ReLuActivation{}, DropoutRate),
			NewLayer(HiddenSize, HiddenSize, &ml.ReLuActivation{}, DropoutRate),
			NewLayer(HiddenSize, 1, &ml.SigmoidActivation{}, 0),
		},
		input:     make([]Neuron, InputSize),
		cost:      &ml.BinaryCrossEntropyCost{},
		optimizer: optimizer,
	}
}

func (m *Model) forward(features []float64, rnd *rand.Rand) float64 {
	for i, x := range features {
		m.input[i] = Neuron{Activation: x}
	}
	var prev = m.input
	for _, layer := range m.layers {
		layer.Forward(prev, rnd)
		prev = layer.outputs
	}
	return prev[0].Activation
}

// Predict returns the churn probability for one scaled feature row.
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != InputSize {
		return 0, errors.Wrapf(ErrInputSize, "%d features, want %d", len(features), InputSize)
	}
	return m.forward(features, nil), nil
}

// predict skips the size check; callers pass rows already validated.
func (m *Model) predict(features []float64) float64 {
	return m.forward(features, nil)
}

func (m *Model) CalcCost(sample *domain.Sample) float64 {
	var predicted = m.forward(sample.Features, nil)
	return m.cost.Cost(predicted, sample.Target)
}

// Train runs forward with dropout and accumulates gradients for sample.
func (m *Model) Train(sample *domain.Sample, rnd *rand.Rand) {
	var predicted = m.forward(sample.Features, rnd)
	var last = len(m.layers) - 1
	m.layers[last].outputs[0].Error = m.cost.CostPrime(predicted, sample.Target)
	// back propagation
	for i := last; i >= 0; i-- {
		var input = m.input
		if i > 0 {
			input = m.layers[i-1].outputs
		}
		m.layers[i].Backward(input)
	}
}

// ApplyGradients takes one optimizer step using the mean gradient over batchSize samples.
func (m *Model) ApplyGradients(batchSize int) {
	m.step++
	var scale = 1 / float64(batchSize)
	for _, layer := range m.layers {
		layer.ApplyGradients(m.optimizer, m.step, scale)
	}
}

func checkInput(samples []domain.Sample) error {
	for i := range samples {
		if len(samples[i].Features) != InputSize {
			return errors.Wrapf(ErrInputSize, "sample %d has %d features, want %d",
				i, len(samples[i].Features), InputSize)
		}
	}
	return nil
}
