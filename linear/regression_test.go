package linear

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"github.com/YuminosukeSato/autoprice/pkg/log"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-6

func quietModel(opts ...Option) *LinearRegression {
	logger, _ := log.NewTestLogger(log.LevelError)
	return NewLinearRegression(append([]Option{WithLogger(logger)}, opts...)...)
}

// captureWarnings collects warnings emitted through errors.Warn during the test.
func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var mu sync.Mutex
	got := &[]error{}
	prev := errors.SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		*got = append(*got, w)
	})
	t.Cleanup(func() { errors.SetWarningHandler(prev) })
	return got
}

func TestFitNoiselessRecovery(t *testing.T) {
	// y = 3 + 2*x1 - 1*x2
	X := mat.NewDense(5, 2, []float64{
		1, 2,
		2, 1,
		3, 5,
		4, 3,
		0, 7,
	})
	y := mat.NewVecDense(5, nil)
	for i := 0; i < 5; i++ {
		y.SetVec(i, 3+2*X.At(i, 0)-X.At(i, 1))
	}

	lr := quietModel()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if math.Abs(lr.Intercept()-3) > tol {
		t.Errorf("Intercept() = %v, want 3", lr.Intercept())
	}
	want := []float64{2, -1}
	for j, c := range lr.Coef() {
		if math.Abs(c-want[j]) > tol {
			t.Errorf("Coef()[%d] = %v, want %v", j, c, want[j])
		}
	}
	if lr.Rank() != 2 {
		t.Errorf("Rank() = %d, want 2", lr.Rank())
	}

	r2, err := lr.Score(X, y)
	if err != nil || math.Abs(r2-1) > tol {
		t.Errorf("Score() = %v, %v; want 1", r2, err)
	}
}

func TestFitConstantColumnIsMinimumNorm(t *testing.T) {
	warnings := captureWarnings(t)

	// price = 5*feature_a + 5, feature_b constant
	X := mat.NewDense(4, 2, []float64{
		1, 1,
		2, 1,
		3, 1,
		4, 1,
	})
	y := mat.NewVecDense(4, []float64{10, 15, 20, 25})

	lr := quietModel(WithFeatureNames([]string{"feature_a", "feature_b"}))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit must not fail on a rank-deficient design: %v", err)
	}

	coefs := lr.Coefficients()
	if math.Abs(coefs["feature_a"]-5) > 1e-3 {
		t.Errorf("feature_a = %v, want 5", coefs["feature_a"])
	}
	if math.Abs(coefs["feature_b"]) > 1e-3 {
		t.Errorf("feature_b = %v, want 0", coefs["feature_b"])
	}
	if math.Abs(lr.Intercept()-5) > 1e-3 {
		t.Errorf("Intercept() = %v, want 5", lr.Intercept())
	}

	if lr.Rank() != 1 {
		t.Errorf("Rank() = %d, want 1", lr.Rank())
	}
	if len(*warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(*warnings))
	}
	if errors.Kind((*warnings)[0]) != errors.KindSingular {
		t.Errorf("warning kind = %q, want %q", errors.Kind((*warnings)[0]), errors.KindSingular)
	}
}

func TestFitDuplicateColumnsSplitsWeight(t *testing.T) {
	captureWarnings(t)

	// y = 1 + 4x, x duplicated: the minimum-norm split is 2 and 2.
	X := mat.NewDense(4, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
		5, 5,
	})
	y := mat.NewVecDense(4, []float64{5, 9, 13, 21})

	lr := quietModel()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for j, c := range lr.Coef() {
		if math.Abs(c-2) > tol {
			t.Errorf("Coef()[%d] = %v, want 2", j, c)
		}
	}
	if math.Abs(lr.Intercept()-1) > tol {
		t.Errorf("Intercept() = %v, want 1", lr.Intercept())
	}
}

func TestFitAllConstantColumns(t *testing.T) {
	captureWarnings(t)

	X := mat.NewDense(3, 2, []float64{
		2, 7,
		2, 7,
		2, 7,
	})
	y := mat.NewVecDense(3, []float64{1, 2, 6})

	lr := quietModel()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if lr.Rank() != 0 {
		t.Errorf("Rank() = %d, want 0", lr.Rank())
	}
	if lr.Intercept() != 3 {
		t.Errorf("Intercept() = %v, want mean(y) = 3", lr.Intercept())
	}
}

func TestFitInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		X    mat.Matrix
		y    mat.Vector
		opts []Option
	}{
		{
			name: "row mismatch",
			X:    mat.NewDense(3, 1, []float64{1, 2, 3}),
			y:    mat.NewVecDense(2, []float64{1, 2}),
		},
		{
			name: "nan in X",
			X:    mat.NewDense(2, 1, []float64{1, math.NaN()}),
			y:    mat.NewVecDense(2, []float64{1, 2}),
		},
		{
			name: "inf in y",
			X:    mat.NewDense(2, 1, []float64{1, 2}),
			y:    mat.NewVecDense(2, []float64{1, math.Inf(1)}),
		},
		{
			name: "wrong number of names",
			X:    mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
			y:    mat.NewVecDense(2, []float64{1, 2}),
			opts: []Option{WithFeatureNames([]string{"a"})},
		},
		{
			name: "duplicate names",
			X:    mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
			y:    mat.NewVecDense(2, []float64{1, 2}),
			opts: []Option{WithFeatureNames([]string{"a", "a"})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := quietModel(tt.opts...)
			err := lr.Fit(tt.X, tt.y)
			if errors.Kind(err) != errors.KindInvalidInput {
				t.Fatalf("Kind() = %q, want %q (err=%v)", errors.Kind(err), errors.KindInvalidInput, err)
			}
			if lr.IsFitted() {
				t.Error("model must stay unfitted after a failed Fit")
			}
		})
	}
}

func fittedModel(t *testing.T) *LinearRegression {
	t.Helper()
	rng := rand.New(rand.NewPCG(5, 5))
	X := mat.NewDense(50, 3, nil)
	y := mat.NewVecDense(50, nil)
	for i := 0; i < 50; i++ {
		for j := 0; j < 3; j++ {
			X.Set(i, j, rng.Float64()*100)
		}
		y.SetVec(i, 1000+3*X.At(i, 0)-2*X.At(i, 1)+0.5*X.At(i, 2)+rng.NormFloat64())
	}
	lr := quietModel(WithFeatureNames([]string{"engine_size", "horsepower", "peak_rpm"}))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return lr
}

func TestPredictRowIsAffine(t *testing.T) {
	lr := fittedModel(t)
	coef := lr.Coef()

	rows := [][]float64{{0, 0, 0}, {130, 111, 5000}, {-1.5, 2.25, 1e6}}
	for _, row := range rows {
		want := lr.Intercept()
		for j := range coef {
			want += coef[j] * row[j]
		}

		got, err := lr.PredictRow(row)
		if err != nil {
			t.Fatalf("PredictRow: %v", err)
		}
		if got != want {
			t.Errorf("PredictRow(%v) = %v, want exactly %v", row, got, want)
		}
	}
}

func TestPredictMatchesPredictRowBitForBit(t *testing.T) {
	lr := fittedModel(t)

	X := mat.NewDense(3, 3, []float64{
		130, 111, 5000,
		97, 69, 5200,
		0.1, 0.2, 0.3,
	})
	batch, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	again, _ := lr.Predict(X)

	for i := 0; i < 3; i++ {
		single, err := lr.PredictRow(mat.Row(nil, i, X))
		if err != nil {
			t.Fatalf("PredictRow: %v", err)
		}
		if math.Float64bits(single) != math.Float64bits(batch.AtVec(i)) {
			t.Errorf("row %d: PredictRow = %v, Predict = %v", i, single, batch.AtVec(i))
		}
		if math.Float64bits(again.AtVec(i)) != math.Float64bits(batch.AtVec(i)) {
			t.Errorf("row %d: repeated Predict differs", i)
		}
	}
}

func TestPredictDimensionMismatch(t *testing.T) {
	lr := fittedModel(t)

	_, err := lr.Predict(mat.NewDense(1, 2, []float64{1, 2}))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
	if dimErr.Expected != 3 || dimErr.Got != 2 {
		t.Errorf("unexpected DimensionError %+v", dimErr)
	}

	if _, err := lr.PredictRow([]float64{1, 2, 3, 4}); errors.Kind(err) != errors.KindDimensionMismatch {
		t.Errorf("PredictRow Kind() = %q", errors.Kind(err))
	}
}

func TestNotFitted(t *testing.T) {
	lr := quietModel()

	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	if errors.Kind(err) != errors.KindNotFitted {
		t.Errorf("Predict Kind() = %q", errors.Kind(err))
	}
	if _, err := lr.PredictRow([]float64{1}); errors.Kind(err) != errors.KindNotFitted {
		t.Errorf("PredictRow Kind() = %q", errors.Kind(err))
	}
	if _, err := lr.PredictNamed(map[string]float64{"x0": 1}); errors.Kind(err) != errors.KindNotFitted {
		t.Errorf("PredictNamed Kind() = %q", errors.Kind(err))
	}
	if w := lr.Weights(); w.IsFitted || len(w.Coefficients) != 0 {
		t.Errorf("unexpected weights for unfitted model: %+v", w)
	}
}

func TestPredictNamed(t *testing.T) {
	lr := fittedModel(t)

	want, _ := lr.PredictRow([]float64{130, 111, 5000})
	got, err := lr.PredictNamed(map[string]float64{
		"peak_rpm":    5000,
		"engine_size": 130,
		"horsepower":  111,
	})
	if err != nil {
		t.Fatalf("PredictNamed: %v", err)
	}
	if got != want {
		t.Errorf("PredictNamed = %v, want %v", got, want)
	}

	_, err = lr.PredictNamed(map[string]float64{"engine_size": 130, "horsepower": 111})
	var vErr *errors.ValidationError
	if !errors.As(err, &vErr) || vErr.ParamName != "peak_rpm" {
		t.Errorf("missing feature: got %v", err)
	}

	_, err = lr.PredictNamed(map[string]float64{"engine_size": 130, "horsepower": 111, "peak_rpm": 5000, "bore": 3.19})
	if !errors.As(err, &vErr) || vErr.ParamName != "bore" {
		t.Errorf("unknown feature: got %v", err)
	}
}

func TestConcurrentPredict(t *testing.T) {
	lr := fittedModel(t)
	row := []float64{130, 111, 5000}
	want, _ := lr.PredictRow(row)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				got, err := lr.PredictRow(row)
				if err != nil || got != want {
					t.Errorf("PredictRow = %v, %v; want %v", got, err, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestAccessorsReturnCopies(t *testing.T) {
	lr := fittedModel(t)

	coef := lr.Coef()
	coef[0] = 1e9
	if lr.Coef()[0] == 1e9 {
		t.Error("Coef() exposes internal state")
	}
	names := lr.FeatureNames()
	names[0] = "changed"
	if lr.FeatureNames()[0] != "engine_size" {
		t.Error("FeatureNames() exposes internal state")
	}
}

func TestWeights(t *testing.T) {
	lr := fittedModel(t)

	w := lr.Weights()
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c, ok := w.Coefficient("horsepower"); !ok || c != lr.Coefficients()["horsepower"] {
		t.Errorf("Coefficient(horsepower) = %v, %v", c, ok)
	}
	if w.Metadata["rank"] != 3 {
		t.Errorf("rank metadata = %v, want 3", w.Metadata["rank"])
	}
}
