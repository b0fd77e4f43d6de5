package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FeatureVector is the model input row: names and values in model order.
type FeatureVector struct {
	Date   time.Time
	Names  []string
	Values []float64
}

// Len returns the vector width.
func (v FeatureVector) Len() int { return len(v.Values) }

// Get returns the value of the named feature.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// MarshalJSON encodes the vector as an object whose keys keep model order.
func (v FeatureVector) MarshalJSON() ([]byte, error) {
	if len(v.Names) != len(v.Values) {
		return nil, fmt.Errorf("feature vector has %d names and %d values", len(v.Names), len(v.Values))
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range v.Names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v.Values[i])
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Prediction is a classifier verdict. Probability is nil when the model cannot produce one.
type Prediction struct {
	Label       int      `json:"label"`
	Probability *float64 `json:"probability"`
}

// ForecastResult is the body of the forecast endpoint.
type ForecastResult struct {
	Prediction  int           `json:"model_prediction"`
	Probability *float64      `json:"model_probability"`
	Features    FeatureVector `json:"latest_features"`
}

// PredictionEvent is published after every successful forecast.
type PredictionEvent struct {
	ContractVersion string             `json:"contract_version"`
	ModelKind       string             `json:"model_kind"`
	AsOf            string             `json:"as_of"`
	Prediction      int                `json:"model_prediction"`
	Probability     *float64           `json:"model_probability"`
	Features        map[string]float64 `json:"features"`
	MissingFeatures []string           `json:"missing_features,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ModelInfo describes the served model and its input contract.
type ModelInfo struct {
	Kind            string   `json:"kind"`
	ContractVersion string   `json:"contract_version"`
	Features        []string `json:"features"`
	Probability     bool     `json:"probability"`
}
