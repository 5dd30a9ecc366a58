package train

import "github.com/ChizhovVadim/churnann/internal/domain"

type Confusion struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

type Evaluation struct {
	Samples   int       `json:"samples"`
	Accuracy  float64   `json:"accuracy"`
	Loss      float64   `json:"loss"`
	Confusion Confusion `json:"confusion"`
}

func Evaluate(m *Model, samples []domain.Sample) Evaluation {
	var e = Evaluation{Samples: len(samples)}
	if len(samples) == 0 {
		return e
	}
	var correct int
	for i := range samples {
		var sample = &samples[i]
		var predicted = Label(m.predict(sample.Features))
		switch {
		case predicted == 1 && sample.Target == 1:
			e.Confusion.TruePositive++
		case predicted == 1:
			e.Confusion.FalsePositive++
		case sample.Target == 0:
			e.Confusion.TrueNegative++
		default:
			e.Confusion.FalseNegative++
		}
		if predicted == sample.Target {
			correct++
		}
	}
	e.Accuracy = float64(correct) / float64(len(samples))
	e.Loss = AverageCost(m, samples)
	return e
}
