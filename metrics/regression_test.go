package metrics

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type metricFunc func(yTrue, yPred mat.Vector) (float64, error)

func TestRegressionMetrics(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	tests := []struct {
		name string
		fn   metricFunc
		want float64
	}{
		{"MSE", MSE, 0.25},
		{"RMSE", RMSE, 0.5},
		{"MAE", MAE, 0.5},
		// TSS = 5, RSS = 1
		{"R2Score", R2Score, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred)
			if err != nil {
				t.Fatalf("%s() error = %v", tt.name, err)
			}
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("%s() = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestPerfectPrediction(t *testing.T) {
	y := mat.NewVecDense(5, []float64{13495, 16500, 16500, 13950, 17450})

	for name, fn := range map[string]metricFunc{"MSE": MSE, "MAE": MAE} {
		got, err := fn(y, y)
		if err != nil || got != 0 {
			t.Errorf("%s(y, y) = %v, %v; want 0, nil", name, got, err)
		}
	}
	if r2, err := R2Score(y, y); err != nil || r2 != 1 {
		t.Errorf("R2Score(y, y) = %v, %v; want 1, nil", r2, err)
	}
}

func TestMetricErrors(t *testing.T) {
	short := mat.NewVecDense(2, []float64{1, 2})
	long := mat.NewVecDense(3, []float64{1, 2, 3})
	empty := &mat.VecDense{}

	for _, fn := range []metricFunc{MSE, RMSE, MAE, R2Score} {
		if _, err := fn(long, short); errors.Kind(err) != errors.KindDimensionMismatch {
			t.Errorf("length mismatch: Kind() = %q", errors.Kind(err))
		}
		if _, err := fn(empty, empty); errors.Kind(err) != errors.KindInvalidInput {
			t.Errorf("empty input: Kind() = %q", errors.Kind(err))
		}
	}
}

func TestR2ScoreZeroVariance(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{7, 7, 7})
	yPred := mat.NewVecDense(3, []float64{6, 7, 8})

	got, err := R2Score(yTrue, yPred)
	if !errors.Is(err, ErrZeroVariance) {
		t.Fatalf("expected ErrZeroVariance, got %v", err)
	}
	if !math.IsNaN(got) {
		t.Errorf("R2Score() = %v, want NaN", got)
	}
}

func BenchmarkMSE(b *testing.B) {
	n := 10000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
