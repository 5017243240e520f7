package errors

import (
	"fmt"
	"math"
)

// CheckFinite returns a ValidationError naming param when values contains NaN or Inf.
func CheckFinite(param string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewValidationError(param, fmt.Sprintf("non-finite value at index %d", i), v)
		}
	}
	return nil
}

// CheckMatrix returns a ValidationError naming param when any element of the
// matrix is NaN or Inf.
func CheckMatrix(param string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return NewValidationError(param, fmt.Sprintf("non-finite value at (%d, %d)", i, j), v)
			}
		}
	}
	return nil
}
