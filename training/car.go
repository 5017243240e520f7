package training

import (
	"context"
	"slices"

	"github.com/YuminosukeSato/autoprice/pkg/errors"
)

// Input feature names of the car price model.
const (
	NormalizedLosses = "normalized_losses"
	WheelBase        = "wheel_base"
	EngineSize       = "engine_size"
	Bore             = "bore"
	Stroke           = "stroke"
	CompressionRatio = "compression_ratio"
	Horsepower       = "horsepower"
	PeakRPM          = "peak_rpm"

	Price = "price"
)

// CarFeatures lists the model inputs in their fixed order.
var CarFeatures = []string{
	NormalizedLosses,
	WheelBase,
	EngineSize,
	Bore,
	Stroke,
	CompressionRatio,
	Horsepower,
	PeakRPM,
}

// CarSpec holds the eight inputs of a price prediction request.
type CarSpec struct {
	NormalizedLosses float64 `json:"normalized_losses"`
	WheelBase        float64 `json:"wheel_base"`
	EngineSize       float64 `json:"engine_size"`
	Bore             float64 `json:"bore"`
	Stroke           float64 `json:"stroke"`
	CompressionRatio float64 `json:"compression_ratio"`
	Horsepower       float64 `json:"horsepower"`
	PeakRPM          float64 `json:"peak_rpm"`
}

// Features returns the inputs keyed by feature name.
func (c CarSpec) Features() map[string]float64 {
	return map[string]float64{
		NormalizedLosses: c.NormalizedLosses,
		WheelBase:        c.WheelBase,
		EngineSize:       c.EngineSize,
		Bore:             c.Bore,
		Stroke:           c.Stroke,
		CompressionRatio: c.CompressionRatio,
		Horsepower:       c.Horsepower,
		PeakRPM:          c.PeakRPM,
	}
}

// PredictCarPrice returns the predicted price of car.
func PredictCarPrice(ctx context.Context, p Predictor, car CarSpec) (float64, error) {
	return p.Predict(ctx, car.Features())
}

// CarSpecFromFeatures builds a CarSpec from values keyed by feature name.
// Every input must be present and no other names are accepted.
func CarSpecFromFeatures(values map[string]float64) (CarSpec, error) {
	for _, name := range CarFeatures {
		if _, ok := values[name]; !ok {
			return CarSpec{}, errors.NewValidationError(name, "missing feature value", nil)
		}
	}
	if len(values) != len(CarFeatures) {
		for name, v := range values {
			if !slices.Contains(CarFeatures, name) {
				return CarSpec{}, errors.NewValidationError(name, "unknown feature", v)
			}
		}
	}
	return CarSpec{
		NormalizedLosses: values[NormalizedLosses],
		WheelBase:        values[WheelBase],
		EngineSize:       values[EngineSize],
		Bore:             values[Bore],
		Stroke:           values[Stroke],
		CompressionRatio: values[CompressionRatio],
		Horsepower:       values[Horsepower],
		PeakRPM:          values[PeakRPM],
	}, nil
}
