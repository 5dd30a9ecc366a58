package dataset

import (
	"math"

	"github.com/ChizhovVadim/churnann/internal/domain"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrColumnRange     = errors.New("column index out of range")
	ErrMissingValue    = errors.New("missing value in feature column")
	ErrNonBinaryTarget = errors.New("target is not binary")
	ErrNoRows          = errors.New("dataset has no rows")
)

type Options struct {
	// Exclude lists the columns that are not mean-imputed.
	Exclude []string
	// Features are the columns [FeatureStart, FeatureEnd).
	FeatureStart int
	FeatureEnd   int
	TargetIndex  int
	// Categorical is the label-encoded feature, relative to FeatureStart.
	Categorical int
	TestSize    float64
	Seed        int64
}

func DefaultOptions() Options {
	return Options{
		Exclude:      []string{"user_id", "domain_name"},
		FeatureStart: 1,
		FeatureEnd:   17,
		TargetIndex:  17,
		Categorical:  15,
		TestSize:     0.25,
		Seed:         0,
	}
}

type Prepared struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest []float64

	FeatureNames []string
	TargetName   string
	Encoder      *LabelEncoder
	TrainScaler  *StandardScaler
	TestScaler   *StandardScaler
}

// Prepare imputes, selects, encodes, splits and scales frame in place.
// Train and test partitions are scaled with their own statistics.
func Prepare(frame *Frame, opts Options) (*Prepared, error) {
	var columns = len(frame.Columns)
	if opts.FeatureStart < 0 || opts.FeatureEnd > columns || opts.FeatureStart >= opts.FeatureEnd {
		return nil, errors.Wrapf(ErrColumnRange, "features [%d, %d) of %d columns",
			opts.FeatureStart, opts.FeatureEnd, columns)
	}
	if opts.TargetIndex < 0 || opts.TargetIndex >= columns {
		return nil, errors.Wrapf(ErrColumnRange, "target %d of %d columns", opts.TargetIndex, columns)
	}
	var featureCount = opts.FeatureEnd - opts.FeatureStart
	if opts.Categorical < 0 || opts.Categorical >= featureCount {
		return nil, errors.Wrapf(ErrColumnRange, "categorical feature %d of %d", opts.Categorical, featureCount)
	}

	if frame.Rows() == 0 {
		return nil, errors.WithStack(ErrNoRows)
	}

	if err := frame.ImputeMeans(opts.Exclude...); err != nil {
		return nil, errors.Wrap(err, "impute")
	}

	var p = &Prepared{Encoder: &LabelEncoder{}}
	var x = mat.NewDense(frame.Rows(), featureCount, nil)
	for j := 0; j < featureCount; j++ {
		var c = frame.Columns[opts.FeatureStart+j]
		p.FeatureNames = append(p.FeatureNames, c.Name)
		var values []float64
		var err error
		if j == opts.Categorical {
			values, err = p.Encoder.FitTransform(c.Raw)
			if err != nil {
				return nil, errors.Wrapf(err, "encode %q", c.Name)
			}
		} else {
			values, err = numericValues(c)
			if err != nil {
				return nil, err
			}
		}
		x.SetCol(j, values)
	}

	var target = frame.Columns[opts.TargetIndex]
	p.TargetName = target.Name
	y, err := numericValues(target)
	if err != nil {
		return nil, err
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, errors.Wrapf(ErrNonBinaryTarget, "column %q row %d: %v", target.Name, i+1, v)
		}
	}

	xTrain, xTest, yTrain, yTest, err := TrainTestSplit(x, y, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	p.YTrain, p.YTest = yTrain, yTest

	p.TrainScaler = &StandardScaler{}
	if p.XTrain, err = p.TrainScaler.FitTransform(xTrain); err != nil {
		return nil, errors.Wrap(err, "scale train")
	}
	p.TestScaler = &StandardScaler{}
	if p.XTest, err = p.TestScaler.FitTransform(xTest); err != nil {
		return nil, errors.Wrap(err, "scale test")
	}
	return p, nil
}

func numericValues(c *Column) ([]float64, error) {
	if c.Values != nil {
		return c.Values, nil
	}
	values, err := c.Floats()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, errors.Wrapf(ErrMissingValue, "column %q row %d", c.Name, i+1)
		}
	}
	return values, nil
}

func (p *Prepared) TrainSamples() []domain.Sample { return Samples(p.XTrain, p.YTrain) }
func (p *Prepared) TestSamples() []domain.Sample  { return Samples(p.XTest, p.YTest) }

func Samples(x mat.Matrix, y []float64) []domain.Sample {
	var rows, _ = x.Dims()
	var samples = make([]domain.Sample, rows)
	for i := range samples {
		samples[i] = domain.Sample{
			Features: mat.Row(nil, i, x),
			Target:   y[i],
		}
	}
	return samples
}
