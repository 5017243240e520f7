// Package training wires the splitter and the regressor into the car price
// model, and wraps the fitted model for the dashboard.
package training

import (
	"encoding/json"
	"math"
	"time"

	"github.com/YuminosukeSato/autoprice/linear"
	"github.com/YuminosukeSato/autoprice/metrics"
	"github.com/YuminosukeSato/autoprice/model_selection"
	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"github.com/YuminosukeSato/autoprice/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Table is a source of named numeric columns of equal length.
type Table interface {
	Len() int
	Column(name string) ([]float64, error)
}

// Report describes a training run and its held-out evaluation.
//
// Evaluated is false when the test partition is empty; the scores are then
// NaN. R2 is also NaN when the held-out targets have no variance.
type Report struct {
	NTrain    int
	NTest     int
	TestSize  float64
	Seed      uint64
	R2        float64
	RMSE      float64
	MAE       float64
	Evaluated bool
}

// MarshalJSON encodes undefined scores as null.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		NTrain    int      `json:"n_train"`
		NTest     int      `json:"n_test"`
		TestSize  float64  `json:"test_size"`
		Seed      uint64   `json:"seed"`
		R2        *float64 `json:"r2"`
		RMSE      *float64 `json:"rmse"`
		MAE       *float64 `json:"mae"`
		Evaluated bool     `json:"evaluated"`
	}{r.NTrain, r.NTest, r.TestSize, r.Seed, finite(r.R2), finite(r.RMSE), finite(r.MAE), r.Evaluated})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Result is a fitted model together with its report.
type Result struct {
	Model  *linear.LinearRegression
	Report Report
}

// Train selects features and target from table, splits the rows with the
// given test size and seed, and fits a linear regression on the training
// partition only. The test partition is used for the report.
//
// opts are applied before the feature names are bound, so the model always
// carries features.
func Train(table Table, features []string, target string, testSize float64, seed uint64, opts ...linear.Option) (*Result, error) {
	start := time.Now()
	logger := log.GetLogger().With(log.ComponentKey, "training")

	if len(features) == 0 {
		return nil, errors.NewValidationError("features", "at least one feature is required", features)
	}
	n := table.Len()
	if n == 0 {
		return nil, errors.NewValidationError("table", "no rows", n)
	}

	X := mat.NewDense(n, len(features), nil)
	for j, name := range features {
		col, err := table.Column(name)
		if err != nil {
			return nil, errors.Wrapf(err, "selecting feature %q", name)
		}
		if len(col) != n {
			return nil, errors.NewValidationError(name, "column length differs from table length", len(col))
		}
		X.SetCol(j, col)
	}
	yCol, err := table.Column(target)
	if err != nil {
		return nil, errors.Wrapf(err, "selecting target %q", target)
	}
	if len(yCol) != n {
		return nil, errors.NewValidationError(target, "column length differs from table length", len(yCol))
	}
	y := mat.NewVecDense(n, yCol)

	split, err := model_selection.TrainTestSplit(X, y, testSize, seed)
	if err != nil {
		return nil, err
	}
	logger.Debug("Split dataset",
		log.OperationKey, log.OperationSplit,
		log.TrainKey, len(split.TrainIndices),
		log.TestKey, len(split.TestIndices),
		log.TestSizeKey, testSize,
		log.RandomSeedKey, seed,
	)

	model := linear.NewLinearRegression(append(opts[:len(opts):len(opts)], linear.WithFeatureNames(features))...)
	if err := model.Fit(split.XTrain, split.YTrain); err != nil {
		return nil, err
	}

	report := Report{
		NTrain:   len(split.TrainIndices),
		NTest:    len(split.TestIndices),
		TestSize: testSize,
		Seed:     seed,
	}
	if err := evaluate(model, split, &report); err != nil {
		return nil, err
	}

	logger.Info("Training completed",
		log.PhaseKey, log.PhaseValidation,
		log.TrainKey, report.NTrain,
		log.TestKey, report.NTest,
		log.R2ScoreKey, report.R2,
		log.RMSEKey, report.RMSE,
		log.MAEKey, report.MAE,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &Result{Model: model, Report: report}, nil
}

func evaluate(model *linear.LinearRegression, split *model_selection.Split, report *Report) error {
	report.R2, report.RMSE, report.MAE = math.NaN(), math.NaN(), math.NaN()
	if split.XTest == nil {
		errors.Warn(errors.NewUndefinedMetricWarning("r2", "an empty test partition", math.NaN()))
		return nil
	}

	yPred, err := model.Predict(split.XTest)
	if err != nil {
		return err
	}
	if report.RMSE, err = metrics.RMSE(split.YTest, yPred); err != nil {
		return err
	}
	if report.MAE, err = metrics.MAE(split.YTest, yPred); err != nil {
		return err
	}
	report.R2, err = metrics.R2Score(split.YTest, yPred)
	switch {
	case errors.Is(err, metrics.ErrZeroVariance):
		errors.Warn(errors.NewUndefinedMetricWarning("r2", "no variance in the test targets", report.R2))
	case err != nil:
		return err
	}
	report.Evaluated = true
	return nil
}
