package ml

import "math"

// Gradient accumulates the raw gradient of one parameter over a batch
// together with the optimizer moments for that parameter.
type Gradient struct {
	Value float64
	M1    float64
	M2    float64
}

type Gradients struct {
	Data []Gradient
	Rows int
	Cols int
}

func NewGradients(rows, cols int) Gradients {
	return Gradients{
		Data: make([]Gradient, cols*rows),
		Rows: rows,
		Cols: cols,
	}
}

func (g *Gradients) Add(row, col int, delta float64) {
	g.Data[col*g.Rows+row].Value += delta
}

// Apply updates m with the accumulated gradients scaled by scale
// (1/batch size for a mean loss) and resets the accumulators.
func (g *Gradients) Apply(m *Matrix, optimizer IOptimizer, step int, scale float64) {
	for i := range g.Data {
		var grad = &g.Data[i]
		m.Data[i] -= optimizer.Delta(grad, grad.Value*scale, step)
		grad.Value = 0
	}
}

type IOptimizer interface {
	// Delta updates the moments in g and returns the amount to subtract from the parameter.
	Delta(g *Gradient, value float64, step int) float64
	Name() string
}

type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
}

func NewAdam() *Adam {
	return &Adam{
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      Epsilon,
	}
}

func (o *Adam) Name() string { return "adam" }

func (o *Adam) Delta(g *Gradient, value float64, step int) float64 {
	g.M1 = g.M1*o.Beta1 + value*(1-o.Beta1)
	g.M2 = g.M2*o.Beta2 + (value*value)*(1-o.Beta2)
	var t = float64(step)
	var lr = o.LearningRate * math.Sqrt(1-math.Pow(o.Beta2, t)) / (1 - math.Pow(o.Beta1, t))
	return lr * g.M1 / (math.Sqrt(g.M2) + o.Epsilon)
}

type RMSProp struct {
	LearningRate float64
	Rho          float64
	Epsilon      float64
}

func NewRMSProp() *RMSProp {
	return &RMSProp{
		LearningRate: 0.001,
		Rho:          0.9,
		Epsilon:      Epsilon,
	}
}

func (o *RMSProp) Name() string { return "rmsprop" }

func (o *RMSProp) Delta(g *Gradient, value float64, step int) float64 {
	g.M2 = g.M2*o.Rho + (value*value)*(1-o.Rho)
	return o.LearningRate * value / (math.Sqrt(g.M2) + o.Epsilon)
}
