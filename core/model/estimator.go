package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model that can be trained on a feature matrix and target vector.
type Fitter interface {
	Fit(X mat.Matrix, y mat.Vector) error
}

// Predictor evaluates a fitted model on a batch of rows.
type Predictor interface {
	Predict(X mat.Matrix) (*mat.VecDense, error)
}

// LinearModel exposes the parameters of a fitted affine model.
type LinearModel interface {
	// Coef returns the coefficients in feature-column order.
	Coef() []float64
	// Intercept returns the constant term.
	Intercept() float64
	// Score returns the coefficient of determination R² on X, y.
	Score(X mat.Matrix, y mat.Vector) (float64, error)
}

// Regressor is a trainable linear predictor.
type Regressor interface {
	Fitter
	Predictor
	LinearModel
}
