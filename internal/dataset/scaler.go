package dataset

import (
	"github.com/ezoic/scigo/preprocessing"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var ErrScaler = errors.New("scaler")

// StandardScaler centers every column to zero mean and scales it to unit
// population variance. Constant columns keep a scale of 1.
// Mean and Scale mirror the fitted statistics for the metadata file.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`

	scaler *preprocessing.StandardScaler
}

func (s *StandardScaler) Fit(x mat.Matrix) error {
	var rows, _ = x.Dims()
	if rows == 0 {
		return errors.Wrap(ErrScaler, "no rows to fit")
	}
	var scaler = preprocessing.NewStandardScaler(true, true)
	if err := scaler.Fit(x); err != nil {
		return errors.Wrapf(ErrScaler, "fit: %v", err)
	}
	s.scaler = scaler
	s.Mean = scaler.Mean
	s.Scale = scaler.Scale
	return nil
}

func (s *StandardScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if s.scaler == nil {
		return nil, errors.Wrap(ErrScaler, "not fitted")
	}
	var _, cols = x.Dims()
	if cols != len(s.Mean) {
		return nil, errors.Wrapf(ErrScaler, "fitted on %d columns, got %d", len(s.Mean), cols)
	}
	result, err := s.scaler.Transform(x)
	if err != nil {
		return nil, errors.Wrapf(ErrScaler, "transform: %v", err)
	}
	if dense, ok := result.(*mat.Dense); ok {
		return dense, nil
	}
	return mat.DenseCopyOf(result), nil
}

func (s *StandardScaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
