package preprocessing

import (
	"testing"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestCenterer(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		6, 10,
	})

	c := NewCenterer()
	Xc, err := c.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	if c.Mean[0] != 3 || c.Mean[1] != 10 {
		t.Errorf("Mean = %v, want [3 10]", c.Mean)
	}
	want := []float64{-2, -1, 0, 3}
	for i, w := range want {
		if got := Xc.At(i, 0); got != w {
			t.Errorf("Xc[%d,0] = %v, want %v", i, got, w)
		}
		if got := Xc.At(i, 1); got != 0 {
			t.Errorf("Xc[%d,1] = %v, want 0", i, got)
		}
	}
}

func TestCentererErrors(t *testing.T) {
	c := NewCenterer()
	if _, err := c.Transform(mat.NewDense(1, 1, nil)); errors.Kind(err) != errors.KindNotFitted {
		t.Errorf("Kind = %q, want %q", errors.Kind(err), errors.KindNotFitted)
	}

	if err := c.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := c.Transform(mat.NewDense(1, 3, nil)); errors.Kind(err) != errors.KindDimensionMismatch {
		t.Errorf("Kind = %q, want %q", errors.Kind(err), errors.KindDimensionMismatch)
	}
}
