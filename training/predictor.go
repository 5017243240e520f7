package training

import (
	"context"
	"math"
	"time"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
)

// Predictor produces a price from named feature values.
type Predictor interface {
	Predict(ctx context.Context, features map[string]float64) (float64, error)
}

// NamedModel is a fitted model that accepts inputs keyed by feature name.
type NamedModel interface {
	PredictNamed(values map[string]float64) (float64, error)
}

// DelayedPredictor is the dashboard-facing predictor. It waits for a fixed
// delay, then returns the model's prediction rounded to cents. The wait holds
// no lock, so concurrent callers wait in parallel.
type DelayedPredictor struct {
	model NamedModel
	delay time.Duration
}

// NewDelayedPredictor wraps model. A zero delay returns immediately.
func NewDelayedPredictor(model NamedModel, delay time.Duration) *DelayedPredictor {
	return &DelayedPredictor{model: model, delay: delay}
}

// Delay returns the configured wait.
func (p *DelayedPredictor) Delay() time.Duration {
	return p.delay
}

// Predict waits for the delay or for ctx to end, whichever comes first.
// When ctx ends first it returns ctx.Err().
func (p *DelayedPredictor) Predict(ctx context.Context, features map[string]float64) (float64, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	price, err := p.model.PredictNamed(features)
	if err != nil {
		return 0, err
	}
	// finite inputs far outside the training range can overflow
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errors.NewValidationError("features", "prediction is not finite; inputs are out of range", price)
	}
	return RoundCents(price), nil
}

// RoundCents rounds v to two decimal places, half away from zero. Values too
// large to scale by 100 are returned unchanged.
func RoundCents(v float64) float64 {
	scaled := v * 100
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / 100
}
