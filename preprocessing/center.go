// Package preprocessing holds feature transforms applied before fitting.
package preprocessing

import (
	"fmt"

	"github.com/YuminosukeSato/autoprice/core/model"
	"github.com/YuminosukeSato/autoprice/core/parallel"
	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Centerer removes the column means of a design matrix. It does not scale:
// the least-squares fit takes its minimum-norm slopes in the original units.
type Centerer struct {
	model.BaseEstimator

	// Mean is the per-column mean seen by Fit.
	Mean      []float64
	NFeatures int
}

// NewCenterer returns an unfitted Centerer.
//
//	c := preprocessing.NewCenterer()
//	Xc, err := c.FitTransform(X)
func NewCenterer() *Centerer {
	return &Centerer{}
}

// Fit computes the column means of X.
func (c *Centerer) Fit(X mat.Matrix) error {
	r, k := X.Dims()
	if r == 0 || k == 0 {
		return errors.NewModelError("Centerer.Fit", "empty data", errors.ErrEmptyData)
	}

	c.NFeatures = k
	c.Mean = make([]float64, k)
	col := make([]float64, r)
	for j := 0; j < k; j++ {
		mat.Col(col, j, X)
		c.Mean[j] = stat.Mean(col, nil)
	}

	c.SetFitted()
	return nil
}

// Transform subtracts the fitted means from X.
func (c *Centerer) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !c.IsFitted() {
		return nil, errors.NewNotFittedError("Centerer", "Transform")
	}
	r, k := X.Dims()
	if k != c.NFeatures {
		return nil, errors.NewDimensionError("Centerer.Transform", c.NFeatures, k, 1)
	}

	out := mat.NewDense(r, k, nil)
	parallel.ForRows(r, func(i int) {
		for j := 0; j < k; j++ {
			out.Set(i, j, X.At(i, j)-c.Mean[j])
		}
	})
	return out, nil
}

// FitTransform fits on X and transforms it.
func (c *Centerer) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := c.Fit(X); err != nil {
		return nil, err
	}
	return c.Transform(X)
}

func (c *Centerer) String() string {
	return fmt.Sprintf("Centerer(n_features=%d)", c.NFeatures)
}
