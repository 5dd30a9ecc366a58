package train

import (
	"math/rand"

	"github.com/ChizhovVadim/churnann/internal/ml"
)

type Neuron struct {
	Activation float64
	Error      float64
	Prime      float64
}

// Layer is a fully connected layer with optional inverted dropout on its outputs.
type Layer struct {
	activationFn ml.IActivationFn
	dropout      float64
	outputs      []Neuron
	weights      ml.Matrix
	biases       ml.Matrix
	wGradients   ml.Gradients
	bGradients   ml.Gradients
}

func NewLayer(
	inputSize int,
	outputSize int,
	activationFn ml.IActivationFn,
	dropout float64,
) *Layer {
	return &Layer{
		activationFn: activationFn,
		dropout:      dropout,
		outputs:      make([]Neuron, outputSize),
		weights:      ml.NewMatrix(outputSize, inputSize),
		biases:       ml.NewMatrix(outputSize, 1),
		wGradients:   ml.NewGradients(outputSize, inputSize),
		bGradients:   ml.NewGradients(outputSize, 1),
	}
}

// InitWeightsUniform matches the "uniform" kernel initializer: U(-0.05, 0.05), zero biases.
func (layer *Layer) InitWeightsUniform(rnd *rand.Rand) *Layer {
	ml.InitUniform(rnd, layer.weights.Data, -0.05, 0.05)
	for i := range layer.biases.Data {
		layer.biases.Data[i] = 0
	}
	return layer
}

// Forward computes outputs from input. rnd is only used for dropout and
// must be nil at inference time.
func (layer *Layer) Forward(input []Neuron, rnd *rand.Rand) {
	var keepScale = 1.0
	if rnd != nil && layer.dropout > 0 {
		keepScale = 1 / (1 - layer.dropout)
	}
	for outputIndex := range layer.outputs {
		var x = layer.biases.Data[outputIndex]
		for inputIndex := range input {
			x += layer.weights.Get(outputIndex, inputIndex) * input[inputIndex].Activation
		}
		var n = &layer.outputs[outputIndex]
		n.Activation = layer.activationFn.Sigma(x)
		n.Prime = layer.activationFn.SigmaPrime(x)
		if rnd != nil && layer.dropout > 0 {
			if rnd.Float64() < layer.dropout {
				n.Activation = 0
				n.Prime = 0
			} else {
				n.Activation *= keepScale
				n.Prime *= keepScale
			}
		}
	}
}

// Backward accumulates gradients for this layer and propagates the error
// into input. Output errors must already be set.
func (layer *Layer) Backward(input []Neuron) {
	for inputIndex := range input {
		input[inputIndex].Error = 0
	}
	for outputIndex := range layer.outputs {
		var n = &layer.outputs[outputIndex]
		var x = n.Error * n.Prime
		if x == 0 {
			continue
		}
		layer.bGradients.Add(outputIndex, 0, x)
		for inputIndex := range input {
			input[inputIndex].Error += layer.weights.Get(outputIndex, inputIndex) * x
			layer.wGradients.Add(outputIndex, inputIndex, x*input[inputIndex].Activation)
		}
	}
}

func (layer *Layer) ApplyGradients(optimizer ml.IOptimizer, step int, scale float64) {
	layer.wGradients.Apply(&layer.weights, optimizer, step, scale)
	layer.bGradients.Apply(&layer.biases, optimizer, step, scale)
}
