// Package model_selection partitions samples into training and test sets.
package model_selection

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Split holds one train/test partition. Index slices refer to rows of the
// input and are disjoint; together they cover every row exactly once.
type Split struct {
	TrainIndices []int
	TestIndices  []int

	XTrain *mat.Dense
	YTrain *mat.VecDense
	// XTest and YTest are nil when the test partition is empty.
	XTest *mat.Dense
	YTest *mat.VecDense
}

// SplitIndices shuffles 0..n-1 with a PCG source seeded by seed and returns
// the first floor(n*testSize) shuffled indices as the test set and the rest
// as the training set. The same (n, testSize, seed) always yields the same
// partition.
func SplitIndices(n int, testSize float64, seed uint64) (train, test []int, err error) {
	if n <= 0 {
		return nil, nil, errors.NewValidationError("n_samples", "at least one sample is required", n)
	}
	if err := validateTestSize(testSize); err != nil {
		return nil, nil, err
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	nTest := int(math.Floor(float64(n) * testSize))
	test = append([]int(nil), indices[:nTest]...)
	train = append([]int(nil), indices[nTest:]...)
	return train, test, nil
}

// TrainTestSplit partitions the rows of X and the entries of y with
// SplitIndices and gathers them into new matrices.
func TrainTestSplit(X mat.Matrix, y mat.Vector, testSize float64, seed uint64) (*Split, error) {
	rows, cols := X.Dims()
	if y.Len() != rows {
		return nil, errors.NewValidationError("y",
			"number of targets must match number of rows in X", map[string]int{"rows": rows, "targets": y.Len()})
	}

	train, test, err := SplitIndices(rows, testSize, seed)
	if err != nil {
		return nil, err
	}

	s := &Split{TrainIndices: train, TestIndices: test}
	s.XTrain, s.YTrain = gather(X, y, train, cols)
	if len(test) > 0 {
		s.XTest, s.YTest = gather(X, y, test, cols)
	}
	return s, nil
}

func gather(X mat.Matrix, y mat.Vector, idx []int, cols int) (*mat.Dense, *mat.VecDense) {
	xs := mat.NewDense(len(idx), cols, nil)
	ys := mat.NewVecDense(len(idx), nil)
	for i, src := range idx {
		for j := 0; j < cols; j++ {
			xs.Set(i, j, X.At(src, j))
		}
		ys.SetVec(i, y.AtVec(src))
	}
	return xs, ys
}

func validateTestSize(testSize float64) error {
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return errors.NewValidationError("test_size", "must be in the open interval (0, 1)", testSize)
	}
	return nil
}
