package dataset

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var ErrSplit = errors.New("cannot split dataset")

// TrainTestSplit shuffles the rows with seed and puts ceil(testSize*n) of
// them into the test partition.
func TrainTestSplit(
	x *mat.Dense,
	y []float64,
	testSize float64,
	seed int64,
) (xTrain, xTest *mat.Dense, yTrain, yTest []float64, err error) {
	var n, _ = x.Dims()
	if n != len(y) {
		return nil, nil, nil, nil, errors.Wrapf(ErrSplit, "%d rows but %d targets", n, len(y))
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, errors.Wrapf(ErrSplit, "test size %v", testSize)
	}
	var testCount = int(math.Ceil(testSize * float64(n)))
	var trainCount = n - testCount
	if testCount < 1 || trainCount < 1 {
		return nil, nil, nil, nil, errors.Wrapf(ErrSplit, "%d rows with test size %v", n, testSize)
	}

	var perm = rand.New(rand.NewSource(seed)).Perm(n)
	xTest, yTest = takeRows(x, y, perm[:testCount])
	xTrain, yTrain = takeRows(x, y, perm[testCount:])
	return xTrain, xTest, yTrain, yTest, nil
}

func takeRows(x *mat.Dense, y []float64, rows []int) (*mat.Dense, []float64) {
	var _, cols = x.Dims()
	var rx = mat.NewDense(len(rows), cols, nil)
	var ry = make([]float64, len(rows))
	for i, row := range rows {
		rx.SetRow(i, x.RawRowView(row))
		ry[i] = y[row]
	}
	return rx, ry
}
