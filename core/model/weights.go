package model

import (
	"encoding/json"
	"fmt"
)

// ModelWeights is the serializable form of a fitted linear model. Coefficients
// and Features are index-aligned.
type ModelWeights struct {
	ModelType string `json:"model_type"`
	Version   string `json:"version"`

	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Features     []string  `json:"features,omitempty"`

	Hyperparameters map[string]interface{} `json:"hyperparameters"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`

	IsFitted bool `json:"is_fitted"`
}

// ToJSON serializes the weights as indented JSON.
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON restores weights produced by ToJSON.
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return err
	}
	return mw.Validate()
}

// Validate checks internal consistency.
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}
	if mw.Version == "" {
		return fmt.Errorf("version is required")
	}
	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return fmt.Errorf("unfitted model should not have coefficients")
	}
	if mw.IsFitted && len(mw.Coefficients) == 0 {
		return fmt.Errorf("fitted model must have coefficients")
	}
	if len(mw.Features) > 0 && len(mw.Features) != len(mw.Coefficients) {
		return fmt.Errorf("features (%d) and coefficients (%d) must be aligned", len(mw.Features), len(mw.Coefficients))
	}
	return nil
}

// Coefficient returns the coefficient bound to feature name.
func (mw *ModelWeights) Coefficient(name string) (float64, bool) {
	for i, f := range mw.Features {
		if f == name {
			return mw.Coefficients[i], true
		}
	}
	return 0, false
}
