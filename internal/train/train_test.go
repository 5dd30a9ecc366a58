package train

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/ChizhovVadim/churnann/internal/domain"
	"github.com/ChizhovVadim/churnann/internal/ml"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separableSamples(rnd *rand.Rand, n int) []domain.Sample {
	var samples = make([]domain.Sample, n)
	for i := range samples {
		var features = make([]float64, InputSize)
		for j := range features {
			features[j] = rnd.NormFloat64()
		}
		var target float64
		if features[0]+0.5*features[3] > 0 {
			target = 1
		}
		samples[i] = domain.Sample{Features: features, Target: target}
	}
	return samples
}

func TestGradientMatchesNumeric(t *testing.T) {
	var rnd = rand.New(rand.NewSource(3))
	var m = NewModel(rnd, ml.NewAdam())
	// Larger weights keep ReLUs active so the check is meaningful.
	for _, layer := range m.layers {
		ml.InitUniform(rnd, layer.weights.Data, -0.8, 0.8)
		ml.InitUniform(rnd, layer.biases.Data, 0.1, 0.3)
	}
	var sample = separableSamples(rnd, 1)[0]
	m.Train(&sample, nil)

	const h = 1e-6
	for layerIndex, layer := range m.layers {
		for i := range layer.weights.Data {
			var saved = layer.weights.Data[i]
			layer.weights.Data[i] = saved + h
			var plus = m.CalcCost(&sample)
			layer.weights.Data[i] = saved - h
			var minus = m.CalcCost(&sample)
			layer.weights.Data[i] = saved
			var numeric = (plus - minus) / (2 * h)
			assert.InDelta(t, numeric, layer.wGradients.Data[i].Value, 1e-4,
				"layer %d weight %d", layerIndex, i)
		}
	}
}

func TestFitLearnsSeparableData(t *testing.T) {
	var rnd = rand.New(rand.NewSource(1))
	var training = separableSamples(rnd, 400)
	var validation = separableSamples(rnd, 200)

	c, err := NewClassifier(domain.Params{BatchSize: 25, Epochs: 150, Optimizer: "adam"}, 7)
	require.NoError(t, err)
	var before = AverageCost(c.Model, training)
	require.NoError(t, c.Fit(context.Background(), training))
	assert.Less(t, AverageCost(c.Model, training), before)
	assert.Greater(t, c.Score(validation), 0.85)
}

func TestFitRMSProp(t *testing.T) {
	var rnd = rand.New(rand.NewSource(2))
	var training = separableSamples(rnd, 300)

	c, err := NewClassifier(domain.Params{BatchSize: 32, Epochs: 150, Optimizer: "rmsprop"}, 11)
	require.NoError(t, err)
	require.NoError(t, c.Fit(context.Background(), training))
	assert.Greater(t, c.Score(training), 0.85)
}

func TestFitIsDeterministic(t *testing.T) {
	var samples = separableSamples(rand.New(rand.NewSource(5)), 60)
	var params = domain.Params{BatchSize: 25, Epochs: 3, Optimizer: "adam"}

	a, err := NewClassifier(params, 42)
	require.NoError(t, err)
	b, err := NewClassifier(params, 42)
	require.NoError(t, err)
	require.NoError(t, a.Fit(context.Background(), samples))
	require.NoError(t, b.Fit(context.Background(), samples))
	assert.Empty(t, cmp.Diff(a.Model.Network(), b.Model.Network()))
}

func TestFitErrors(t *testing.T) {
	var ctx = context.Background()

	_, err := NewClassifier(domain.Params{BatchSize: 0, Epochs: 1, Optimizer: "adam"}, 0)
	assert.True(t, errors.Is(err, ErrBadParams))

	_, err = NewClassifier(domain.Params{BatchSize: 1, Epochs: 1, Optimizer: "sgd"}, 0)
	assert.True(t, errors.Is(err, ml.ErrUnknownOptimizer))

	c, err := NewClassifier(domain.Params{BatchSize: 1, Epochs: 1, Optimizer: "adam"}, 0)
	require.NoError(t, err)
	assert.True(t, errors.Is(c.Fit(ctx, nil), ErrEmptyDataset))
	assert.True(t, errors.Is(c.Fit(ctx, []domain.Sample{{Features: []float64{1}}}), ErrInputSize))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	var samples = separableSamples(rand.New(rand.NewSource(1)), 10)
	assert.True(t, errors.Is(c.Fit(canceled, samples), context.Canceled))
}

func TestDropoutOnlyWhileTraining(t *testing.T) {
	var rnd = rand.New(rand.NewSource(9))
	var m = NewModel(rnd, ml.NewAdam())
	var sample = separableSamples(rnd, 1)[0]
	p1, err := m.Predict(sample.Features)
	require.NoError(t, err)
	p2, err := m.Predict(sample.Features)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	var layer = NewLayer(4, 1000, &ml.IdentityActivation{}, 0.1)
	for i := range layer.biases.Data {
		layer.biases.Data[i] = 1
	}
	layer.Forward(make([]Neuron, 4), rnd)
	var dropped int
	for _, n := range layer.outputs {
		if n.Activation == 0 {
			dropped++
		} else {
			assert.InDelta(t, 1/0.9, n.Activation, 1e-12)
		}
	}
	assert.InDelta(t, 100, dropped, 40)
}

func TestNetworkRoundTrip(t *testing.T) {
	var m = NewModel(rand.New(rand.NewSource(4)), ml.NewAdam())
	var net = m.Network()

	var buf bytes.Buffer
	require.NoError(t, net.Write(&buf))
	loaded, err := ReadNetwork(&buf)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(net, loaded, cmpopts.EquateApprox(0, 1e-7)))

	restored, err := NewModelFromNetwork(loaded)
	require.NoError(t, err)
	var features = make([]float64, InputSize)
	for i := range features {
		features[i] = float64(i) / 10
	}
	want, err := m.Predict(features)
	require.NoError(t, err)
	got, err := restored.Predict(features)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-6)
}

func TestReadNetworkRejectsGarbage(t *testing.T) {
	_, err := ReadNetwork(bytes.NewReader([]byte("BZ\x02\x00garbage-garbage")))
	assert.True(t, errors.Is(err, ErrBadNetworkFile))

	_, err = ReadNetwork(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, ErrBadNetworkFile))

	var header = func(inputs, outputs uint32, hidden ...uint32) []byte {
		var b = []byte{'C', 'H', 1, 0}
		b = binary.LittleEndian.AppendUint32(b, inputs)
		b = binary.LittleEndian.AppendUint32(b, outputs)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(hidden)))
		for _, h := range hidden {
			b = binary.LittleEndian.AppendUint32(b, h)
		}
		return b
	}
	for name, data := range map[string][]byte{
		"huge sizes":   header(0xFFFFFFFF, 0xFFFFFFFF),
		"huge hidden":  header(16, 1, 0xFFFFFFFF),
		"zero inputs":  header(0, 1),
		"huge product": header(1<<16, 1<<16),
		"truncated":    header(16, 1, 8, 8),
	} {
		require.NotPanics(t, func() {
			_, err = ReadNetwork(bytes.NewReader(data))
		}, name)
		assert.True(t, errors.Is(err, ErrBadNetworkFile), name)
	}
}

func TestNewModelFromNetworkChecksShapes(t *testing.T) {
	var net = NewModel(rand.New(rand.NewSource(4)), ml.NewAdam()).Network()

	var short = *net
	short.Weights = short.Weights[:2]
	_, err := NewModelFromNetwork(&short)
	assert.True(t, errors.Is(err, ErrBadNetworkFile))

	var wrong = *net
	wrong.Weights = append([]ml.Matrix(nil), net.Weights...)
	wrong.Weights[1] = ml.NewMatrix(3, 3)
	_, err = NewModelFromNetwork(&wrong)
	assert.True(t, errors.Is(err, ErrBadNetworkFile))

	_, err = NewModelFromNetwork(net)
	assert.NoError(t, err)
}

func TestPredictChecksInputSize(t *testing.T) {
	var m = NewModel(rand.New(rand.NewSource(4)), ml.NewAdam())
	_, err := m.Predict(make([]float64, InputSize+1))
	assert.True(t, errors.Is(err, ErrInputSize))
	_, err = m.Predict(make([]float64, InputSize-1))
	assert.True(t, errors.Is(err, ErrInputSize))
}

func TestEvaluate(t *testing.T) {
	var m = NewModel(rand.New(rand.NewSource(1)), ml.NewAdam())
	var samples = separableSamples(rand.New(rand.NewSource(2)), 50)
	var e = Evaluate(m, samples)
	var c = e.Confusion
	assert.Equal(t, 50, c.TruePositive+c.FalsePositive+c.TrueNegative+c.FalseNegative)
	assert.InDelta(t, float64(c.TruePositive+c.TrueNegative)/50, e.Accuracy, 1e-12)
	assert.False(t, math.IsNaN(e.Loss))
}
