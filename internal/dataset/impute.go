package dataset

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ImputeMeans parses every column except exclude as numeric and replaces
// missing cells with the mean of the observed ones.
func (f *Frame) ImputeMeans(exclude ...string) error {
	var skip = make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}
	for _, c := range f.Columns {
		if _, found := skip[c.Name]; found {
			continue
		}
		values, err := c.Floats()
		if err != nil {
			return err
		}
		var observed = make([]float64, 0, len(values))
		for _, x := range values {
			if !math.IsNaN(x) {
				observed = append(observed, x)
			}
		}
		if len(observed) == 0 {
			return errors.Wrapf(ErrEmptyColumn, "%q", c.Name)
		}
		if len(observed) < len(values) {
			var mean = stat.Mean(observed, nil)
			for i, x := range values {
				if math.IsNaN(x) {
					values[i] = mean
				}
			}
		}
		c.Values = values
	}
	return nil
}
