package train

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/ChizhovVadim/churnann/internal/ml"
	"github.com/pkg/errors"
)

var ErrBadNetworkFile = errors.New("bad network file")

type Topology struct {
	Inputs        uint32
	Outputs       uint32
	HiddenNeurons []uint32
}

func (t *Topology) LayerSize() int {
	return len(t.HiddenNeurons) + 1
}

type Network struct {
	Topology Topology
	Weights  []ml.Matrix
	Biases   []ml.Matrix
}

// Binary layout of the network file:
// - little-endian, matrices column-major
// - magic: 'C', 'H', major version 1, minor version 0 (uint8 each)
// - uint32 inputs, uint32 outputs, uint32 hidden layer count
// - uint32 size of each hidden layer
// - per layer: weights then biases as float32
func (n *Network) Write(w io.Writer) error {
	var bw = bufio.NewWriter(w)

	var header = make([]byte, 0, 16+4*len(n.Topology.HiddenNeurons))
	header = append(header, 'C', 'H', 1, 0)
	header = binary.LittleEndian.AppendUint32(header, n.Topology.Inputs)
	header = binary.LittleEndian.AppendUint32(header, n.Topology.Outputs)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(n.Topology.HiddenNeurons)))
	for _, size := range n.Topology.HiddenNeurons {
		header = binary.LittleEndian.AppendUint32(header, size)
	}
	if _, err := bw.Write(header); err != nil {
		return errors.WithStack(err)
	}

	for i := 0; i < n.Topology.LayerSize(); i++ {
		if err := writeSlice(bw, n.Weights[i].Data); err != nil {
			return err
		}
		if err := writeSlice(bw, n.Biases[i].Data); err != nil {
			return err
		}
	}
	return errors.WithStack(bw.Flush())
}

func (n *Network) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := n.Write(f); err != nil {
		f.Close()
		return err
	}
	return errors.WithStack(f.Close())
}

func ReadNetwork(r io.Reader) (*Network, error) {
	var br = bufio.NewReader(r)

	var buf = make([]byte, 16)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errors.Wrap(ErrBadNetworkFile, err.Error())
	}
	if buf[0] != 'C' || buf[1] != 'H' {
		return nil, errors.Wrap(ErrBadNetworkFile, "magic word does not match")
	}
	if buf[2] != 1 || buf[3] != 0 {
		return nil, errors.Wrapf(ErrBadNetworkFile, "unsupported version %d.%d", buf[2], buf[3])
	}
	var inputs = binary.LittleEndian.Uint32(buf[4:])
	var outputs = binary.LittleEndian.Uint32(buf[8:])
	var layers = binary.LittleEndian.Uint32(buf[12:])
	if layers > maxHiddenLayers {
		return nil, errors.Wrapf(ErrBadNetworkFile, "%d hidden layers", layers)
	}
	if err := checkLayerSize(inputs); err != nil {
		return nil, err
	}
	if err := checkLayerSize(outputs); err != nil {
		return nil, err
	}

	buf = make([]byte, 4*layers)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errors.Wrap(ErrBadNetworkFile, err.Error())
	}
	var hidden = make([]uint32, layers)
	for i := range hidden {
		hidden[i] = binary.LittleEndian.Uint32(buf[4*i:])
		if err := checkLayerSize(hidden[i]); err != nil {
			return nil, err
		}
	}

	var net = &Network{
		Topology: Topology{Inputs: inputs, Outputs: outputs, HiddenNeurons: hidden},
	}
	var inputSize = int(inputs)
	for i := 0; i < net.Topology.LayerSize(); i++ {
		var outputSize = int(outputs)
		if i < len(hidden) {
			outputSize = int(hidden[i])
		}
		if outputSize*inputSize > maxLayerWeights {
			return nil, errors.Wrapf(ErrBadNetworkFile, "layer %d has %dx%d weights", i, outputSize, inputSize)
		}
		var weights = ml.NewMatrix(outputSize, inputSize)
		if err := readSlice(br, weights.Data); err != nil {
			return nil, err
		}
		var biases = ml.NewMatrix(outputSize, 1)
		if err := readSlice(br, biases.Data); err != nil {
			return nil, err
		}
		net.Weights = append(net.Weights, weights)
		net.Biases = append(net.Biases, biases)
		inputSize = outputSize
	}
	return net, nil
}

const (
	maxHiddenLayers = 64
	maxLayerSize    = 1 << 16
	maxLayerWeights = 1 << 24
)

// checkLayerSize bounds header sizes so a corrupt file cannot force a huge allocation.
func checkLayerSize(size uint32) error {
	if size == 0 || size > maxLayerSize {
		return errors.Wrapf(ErrBadNetworkFile, "layer size %d", size)
	}
	return nil
}

func LoadNetwork(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	return ReadNetwork(f)
}

func writeSlice(w io.Writer, data []float64) error {
	var buf = make([]byte, 4)
	for j := range data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(data[j])))
		if _, err := w.Write(buf); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func readSlice(r io.Reader, data []float64) error {
	var buf = make([]byte, 4)
	for j := range data {
		if _, err := io.ReadFull(r, buf); err != nil {
			return errors.Wrap(ErrBadNetworkFile, err.Error())
		}
		data[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	}
	return nil
}

// Network exports the trained weights.
func (m *Model) Network() *Network {
	var n = &Network{
		Topology: Topology{
			Inputs:        InputSize,
			HiddenNeurons: []uint32{HiddenSize, HiddenSize},
			Outputs:       1,
		},
	}
	for _, layer := range m.layers {
		n.Weights = append(n.Weights, layer.weights.Clone())
		n.Biases = append(n.Biases, layer.biases.Clone())
	}
	return n
}

// NewModelFromNetwork restores a model for inference.
func NewModelFromNetwork(n *Network) (*Model, error) {
	var t = n.Topology
	if t.Inputs != InputSize || t.Outputs != 1 || len(t.HiddenNeurons) != 2 ||
		t.HiddenNeurons[0] != HiddenSize || t.HiddenNeurons[1] != HiddenSize {
		return nil, errors.Wrapf(ErrBadNetworkFile, "unexpected topology %+v", t)
	}
	var m = newModel(nil)
	if len(n.Weights) != len(m.layers) || len(n.Biases) != len(m.layers) {
		return nil, errors.Wrapf(ErrBadNetworkFile, "%d weight and %d bias matrices, want %d",
			len(n.Weights), len(n.Biases), len(m.layers))
	}
	for i, layer := range m.layers {
		if !sameShape(n.Weights[i], layer.weights) || !sameShape(n.Biases[i], layer.biases) {
			return nil, errors.Wrapf(ErrBadNetworkFile, "layer %d shape mismatch", i)
		}
	}
	for i, layer := range m.layers {
		layer.weights = n.Weights[i].Clone()
		layer.biases = n.Biases[i].Clone()
	}
	return m, nil
}

func sameShape(a, b ml.Matrix) bool {
	return a.Rows == b.Rows && a.Cols == b.Cols && len(a.Data) == len(b.Data)
}
