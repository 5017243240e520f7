package model

// EstimatorState is the fitted state of an estimator.
type EstimatorState int

const (
	// NotFitted is the state before Fit succeeds.
	NotFitted EstimatorState = iota
	// Fitted is the state after Fit succeeds.
	Fitted
)

// BaseEstimator tracks whether an estimator has been fitted. Embed it in
// estimators; the fitted state is only written by Fit.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether Fit has completed successfully.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}
