// Package linear implements ordinary least-squares linear regression.
package linear

import (
	"fmt"
	"math"
	"time"

	"github.com/YuminosukeSato/autoprice/core/model"
	"github.com/YuminosukeSato/autoprice/core/parallel"
	"github.com/YuminosukeSato/autoprice/metrics"
	"github.com/YuminosukeSato/autoprice/preprocessing"
	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"github.com/YuminosukeSato/autoprice/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const modelName = "LinearRegression"

// Version of the exported weight format.
const Version = "1.0.0"

// LinearRegression fits y ≈ intercept + X·coef by least squares.
//
// Rank-deficient designs, such as a constant or duplicated feature column,
// do not fail: Fit emits a RankDeficiencyWarning and keeps the minimum-norm
// coefficient vector among all least-squares solutions.
//
// After Fit returns, the model is read-only and safe for concurrent use by
// Predict, PredictRow, PredictNamed and the accessors. Fit itself must not
// run concurrently with other methods.
type LinearRegression struct {
	model.BaseEstimator

	rcond  float64
	names  []string
	logger log.Logger

	coef      []float64
	intercept float64
	features  []string
	rank      int
	singular  []float64
	nSamples  int
}

// NewLinearRegression creates an unfitted model.
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{}
	for _, opt := range opts {
		opt(lr)
	}
	if lr.logger == nil {
		lr.logger = log.GetLogger()
	}
	lr.logger = lr.logger.With(log.ModelNameKey, modelName)
	return lr
}

// Fit estimates the intercept and coefficients from X (n×K) and y (n).
//
// The problem is solved in centered form: with column means x̄ and ȳ, the
// slopes minimize ||(X - x̄) coef - (y - ȳ)|| through a thin SVD of the
// centered X, and intercept = ȳ - x̄·coef. This is the least-squares solution
// of the ones-augmented system [1 | X], where the minimum norm is taken over
// the slopes so a constant column contributes nothing.
func (lr *LinearRegression) Fit(X mat.Matrix, y mat.Vector) (err error) {
	const op = "LinearRegression.Fit"
	defer errors.Recover(&err, op)
	start := time.Now()

	n, k := X.Dims()
	if n == 0 || k == 0 {
		return errors.NewValidationError("X", "empty data", fmt.Sprintf("%dx%d", n, k))
	}
	if y.Len() != n {
		return errors.NewValidationError("y",
			"number of targets must match number of rows in X", map[string]int{"rows": n, "targets": y.Len()})
	}
	if err := errors.CheckMatrix("X", X, n, k); err != nil {
		return err
	}
	yv := make([]float64, n)
	for i := range yv {
		yv[i] = y.AtVec(i)
	}
	if err := errors.CheckFinite("y", yv); err != nil {
		return err
	}

	features, err := lr.featureNames(k)
	if err != nil {
		return err
	}

	// Column means, then the centered design.
	centerer := preprocessing.NewCenterer()
	xc, err := centerer.FitTransform(X)
	if err != nil {
		return err
	}
	xMean := centerer.Mean
	yMean := stat.Mean(yv, nil)
	yc := mat.NewVecDense(n, nil)
	for i, v := range yv {
		yc.SetVec(i, v-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return errors.NewModelError(op, "factorization", errors.ErrFactorization)
	}

	rcond := lr.rcond
	if rcond <= 0 {
		rcond = float64(max(n, k+1)) * eps
	}
	rank := svd.Rank(rcond)

	beta := mat.NewVecDense(k, nil)
	if rank > 0 {
		svd.SolveVecTo(beta, yc, rank)
	}
	coef := make([]float64, k)
	for j := range coef {
		coef[j] = beta.AtVec(j)
	}
	intercept := yMean - floats.Dot(xMean, coef)

	if rank < k {
		errors.Warn(errors.NewRankDeficiencyWarning(op, rank, k, rcond))
	}

	lr.coef = coef
	lr.intercept = intercept
	lr.features = features
	lr.rank = rank
	lr.singular = svd.Values(nil)
	lr.nSamples = n
	lr.SetFitted()

	lr.logger.Info("Model fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, k,
		log.RankKey, rank,
		log.InterceptKey, intercept,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

var eps = math.Nextafter(1, 2) - 1

func (lr *LinearRegression) featureNames(k int) ([]string, error) {
	if len(lr.names) == 0 {
		names := make([]string, k)
		for j := range names {
			names[j] = fmt.Sprintf("x%d", j)
		}
		return names, nil
	}
	if len(lr.names) != k {
		return nil, errors.NewValidationError("feature_names",
			fmt.Sprintf("expected %d names, one per column", k), len(lr.names))
	}
	seen := make(map[string]struct{}, k)
	for _, name := range lr.names {
		if _, dup := seen[name]; dup {
			return nil, errors.NewValidationError("feature_names", "duplicate feature name", name)
		}
		seen[name] = struct{}{}
	}
	return append([]string(nil), lr.names...), nil
}

// Predict returns intercept + dot(coef, row) for every row of X.
func (lr *LinearRegression) Predict(X mat.Matrix) (*mat.VecDense, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError(modelName, "Predict")
	}

	r, c := X.Dims()
	if c != len(lr.coef) {
		return nil, errors.NewDimensionError("LinearRegression.Predict", len(lr.coef), c, 1)
	}
	if r == 0 {
		return nil, errors.NewValidationError("X", "no rows to predict", r)
	}

	preds := mat.NewVecDense(r, nil)
	parallel.ForRows(r, func(i int) {
		preds.SetVec(i, lr.affine(func(j int) float64 { return X.At(i, j) }))
	})
	return preds, nil
}

// PredictRow returns the prediction for a single row. The result is
// bit-identical to the matching element of Predict.
func (lr *LinearRegression) PredictRow(row []float64) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError(modelName, "PredictRow")
	}
	if len(row) != len(lr.coef) {
		return 0, errors.NewDimensionError("LinearRegression.PredictRow", len(lr.coef), len(row), 1)
	}
	return lr.affine(func(j int) float64 { return row[j] }), nil
}

// PredictNamed predicts from feature values keyed by name, so callers do not
// depend on column order. Every bound feature must be present and no other
// names are accepted.
func (lr *LinearRegression) PredictNamed(values map[string]float64) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError(modelName, "PredictNamed")
	}

	row := make([]float64, len(lr.features))
	for j, name := range lr.features {
		v, ok := values[name]
		if !ok {
			return 0, errors.NewValidationError(name, "missing feature value", nil)
		}
		row[j] = v
	}
	if len(values) != len(lr.features) {
		for name := range values {
			if lr.indexOf(name) < 0 {
				return 0, errors.NewValidationError(name, "unknown feature", values[name])
			}
		}
	}
	return lr.PredictRow(row)
}

// affine sums from the intercept in column order. Predict and PredictRow
// both go through it so their results match exactly.
func (lr *LinearRegression) affine(at func(j int) float64) float64 {
	pred := lr.intercept
	for j, w := range lr.coef {
		pred += w * at(j)
	}
	return pred
}

func (lr *LinearRegression) indexOf(name string) int {
	for j, f := range lr.features {
		if f == name {
			return j
		}
	}
	return -1
}

// Score returns the coefficient of determination R² of the predictions on X
// against y.
func (lr *LinearRegression) Score(X mat.Matrix, y mat.Vector) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError(modelName, "Score")
	}
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(y, yPred)
}

// Coefficients returns each coefficient keyed by its feature name.
func (lr *LinearRegression) Coefficients() map[string]float64 {
	out := make(map[string]float64, len(lr.coef))
	for j, name := range lr.features {
		out[name] = lr.coef[j]
	}
	return out
}

// Coef returns a copy of the coefficients in feature-column order.
func (lr *LinearRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef...)
}

// Intercept returns the fitted constant term.
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept
}

// FeatureNames returns the feature names bound at fit time.
func (lr *LinearRegression) FeatureNames() []string {
	return append([]string(nil), lr.features...)
}

// Rank returns the effective rank of the centered design matrix.
func (lr *LinearRegression) Rank() int {
	return lr.rank
}

// SingularValues returns the singular values of the centered design matrix
// in decreasing order.
func (lr *LinearRegression) SingularValues() []float64 {
	return append([]float64(nil), lr.singular...)
}

// Weights exports the fitted parameters.
func (lr *LinearRegression) Weights() *model.ModelWeights {
	mw := &model.ModelWeights{
		ModelType: modelName,
		Version:   Version,
		Hyperparameters: map[string]interface{}{
			"rcond": lr.rcond,
		},
		IsFitted: lr.IsFitted(),
	}
	if !lr.IsFitted() {
		return mw
	}
	mw.Coefficients = lr.Coef()
	mw.Intercept = lr.intercept
	mw.Features = lr.FeatureNames()
	mw.Metadata = map[string]interface{}{
		"rank":            lr.rank,
		"n_samples":       lr.nSamples,
		"singular_values": lr.SingularValues(),
	}
	return mw
}

var _ model.Regressor = (*LinearRegression)(nil)
