package linear

import "github.com/YuminosukeSato/autoprice/pkg/log"

// Option is a function that configures LinearRegression
type Option func(*LinearRegression)

// WithRcond sets the relative cutoff for small singular values. Singular
// values at or below rcond times the largest one are treated as zero when
// determining the effective rank. Zero selects max(n_samples, n_features+1)*eps.
func WithRcond(rcond float64) Option {
	return func(lr *LinearRegression) {
		lr.rcond = rcond
	}
}

// WithFeatureNames binds a name to each feature column, in column order.
func WithFeatureNames(names []string) Option {
	return func(lr *LinearRegression) {
		lr.names = append([]string(nil), names...)
	}
}

// WithLogger sets the logger used for fit diagnostics
func WithLogger(logger log.Logger) Option {
	return func(lr *LinearRegression) {
		lr.logger = logger
	}
}
