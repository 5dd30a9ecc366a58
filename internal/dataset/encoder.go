package dataset

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrMissingCategory = errors.New("missing categorical value")
	ErrUnknownCategory = errors.New("unknown categorical value")
)

// LabelEncoder maps categories to their index in the sorted list of classes.
type LabelEncoder struct {
	Classes []string
	index   map[string]int
}

func (e *LabelEncoder) Fit(values []string) error {
	var seen = make(map[string]struct{})
	for i, v := range values {
		if IsMissing(v) {
			return errors.Wrapf(ErrMissingCategory, "row %d", i+1)
		}
		seen[v] = struct{}{}
	}
	e.Classes = make([]string, 0, len(seen))
	for v := range seen {
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)
	e.index = make(map[string]int, len(e.Classes))
	for i, v := range e.Classes {
		e.index[v] = i
	}
	return nil
}

func (e *LabelEncoder) Transform(values []string) ([]float64, error) {
	var codes = make([]float64, len(values))
	for i, v := range values {
		code, found := e.index[v]
		if !found {
			return nil, errors.Wrapf(ErrUnknownCategory, "row %d: %q", i+1, v)
		}
		codes[i] = float64(code)
	}
	return codes, nil
}

func (e *LabelEncoder) FitTransform(values []string) ([]float64, error) {
	if err := e.Fit(values); err != nil {
		return nil, err
	}
	return e.Transform(values)
}
