// Package metrics provides regression scores for held-out evaluation.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrZeroVariance is returned by R2Score when every true value is identical.
var ErrZeroVariance = errors.New("total sum of squares is zero")

// MSE returns the mean squared error.
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	if err := checkPair("MSE", yTrue, yPred); err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	n := yTrue.Len()
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE returns the root mean squared error, in the units of the target.
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error.
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	if err := checkPair("MAE", yTrue, yPred); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score returns the coefficient of determination 1 - RSS/TSS. It returns
// ErrZeroVariance when yTrue is constant, where R² is undefined.
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	if err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		yp := yPred.AtVec(i)
		tss += (yt - yMean) * (yt - yMean)
		rss += (yt - yp) * (yt - yp)
	}

	if tss == 0 {
		return math.NaN(), errors.Wrap(ErrZeroVariance, "R2Score")
	}
	return 1 - rss/tss, nil
}

func checkPair(op string, yTrue, yPred mat.Vector) error {
	if yTrue.Len() == 0 {
		return errors.NewValidationError("y_true", op+": empty vector", 0)
	}
	if yPred.Len() != yTrue.Len() {
		return errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	return nil
}
