package search

import (
	"sort"

	"github.com/pkg/errors"
)

var ErrFolds = errors.New("bad number of folds")

type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold splits sample indexes into k folds preserving the class
// balance, without shuffling. Labels are dealt round-robin in class order to
// size each fold's share of a class, then each class's samples are assigned
// to folds in contiguous blocks of that size, in their original order.
func StratifiedKFold(labels []float64, k int) ([]Fold, error) {
	if k < 2 {
		return nil, errors.Wrapf(ErrFolds, "need at least 2 folds, got %d", k)
	}
	if k > len(labels) {
		return nil, errors.Wrapf(ErrFolds, "%d folds for %d samples", k, len(labels))
	}

	var classes []float64
	var classIndex = make(map[float64]int)
	for _, y := range labels {
		if _, found := classIndex[y]; !found {
			classIndex[y] = 0
			classes = append(classes, y)
		}
	}
	sort.Float64s(classes)
	for i, c := range classes {
		classIndex[c] = i
	}

	var encoded = make([]int, len(labels))
	var counts = make([]int, len(classes))
	for i, y := range labels {
		encoded[i] = classIndex[y]
		counts[encoded[i]]++
	}
	for c, count := range counts {
		if count < k {
			return nil, errors.Wrapf(ErrFolds, "class %v has %d members, fewer than %d folds",
				classes[c], count, k)
		}
	}

	var sorted = append([]int(nil), encoded...)
	sort.Ints(sorted)
	// allocation[f][c] is the number of class c samples in fold f
	var allocation = make([][]int, k)
	for f := range allocation {
		allocation[f] = make([]int, len(classes))
		for i := f; i < len(sorted); i += k {
			allocation[f][sorted[i]]++
		}
	}

	var testFold = make([]int, len(labels))
	for c := range classes {
		var f, left = 0, allocation[0][c]
		for i, y := range encoded {
			if y != c {
				continue
			}
			for left == 0 {
				f++
				left = allocation[f][c]
			}
			testFold[i] = f
			left--
		}
	}

	var folds = make([]Fold, k)
	for i, f := range testFold {
		for j := range folds {
			if j == f {
				folds[j].Test = append(folds[j].Test, i)
			} else {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}
	return folds, nil
}
