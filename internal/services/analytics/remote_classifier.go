package analytics

import (
	"context"
	"fmt"
	"slices"
	"time"

	domsvc "CrashRadar/internal/domain/service"
)

// RemoteClassifier delegates inference to a model-serving sidecar that keeps the
// original estimator in its native runtime.
//
//	GET  /model/info -> {"kind", "feature_names", "has_proba"}
//	POST /predict    <- {"features": [[...]]}  -> {"prediction": [0], "probability": [0.12]}
type RemoteClassifier struct {
	base     *HTTPServiceBase
	kind     string
	names    []string
	attempts int
}

// remoteProbClassifier is returned when the sidecar reports probability support.
type remoteProbClassifier struct {
	*RemoteClassifier
}

type modelInfoResponse struct {
	Kind         string   `json:"kind"`
	FeatureNames []string `json:"feature_names"`
	HasProba     bool     `json:"has_proba"`
}

type predictRequest struct {
	Features [][]float64 `json:"features"`
}

type predictResponse struct {
	Prediction  []int     `json:"prediction"`
	Probability []float64 `json:"probability,omitempty"`
}

// NewRemoteClassifier queries the sidecar for its input contract. The returned value
// implements ProbabilityClassifier only when the sidecar model supports it.
func NewRemoteClassifier(ctx context.Context, baseURL string, timeout time.Duration, attempts int) (domsvc.Classifier, error) {
	base := NewHTTPServiceBase(baseURL, timeout)
	var info modelInfoResponse
	if err := base.GetJSON(ctx, "/model/info", &info); err != nil {
		return nil, fmt.Errorf("model info: %w", err)
	}
	if len(info.FeatureNames) == 0 {
		return nil, fmt.Errorf("model info: no feature names")
	}
	rc := &RemoteClassifier{
		base:     base,
		kind:     "remote:" + info.Kind,
		names:    info.FeatureNames,
		attempts: attempts,
	}
	if info.HasProba {
		return &remoteProbClassifier{rc}, nil
	}
	return rc, nil
}

// Ping fetches /model/info and fails if the sidecar is down or now serves a
// model with a different feature order.
func (c *RemoteClassifier) Ping(ctx context.Context) error {
	var info modelInfoResponse
	if err := c.base.GetJSON(ctx, "/model/info", &info); err != nil {
		return fmt.Errorf("model info: %w", err)
	}
	if !slices.Equal(info.FeatureNames, c.names) {
		return fmt.Errorf("model info: sidecar features changed since startup")
	}
	return nil
}

func (c *RemoteClassifier) Kind() string { return c.kind }

func (c *RemoteClassifier) FeatureNames() []string { return c.names }

func (c *RemoteClassifier) Predict(ctx context.Context, row []float64) (int, error) {
	res, err := c.call(ctx, row)
	if err != nil {
		return 0, err
	}
	return res.Prediction[0], nil
}

func (c *RemoteClassifier) call(ctx context.Context, row []float64) (*predictResponse, error) {
	var res predictResponse
	err := c.base.PostJSONWithRetry(ctx, "/predict", predictRequest{Features: [][]float64{row}}, &res, c.attempts)
	if err != nil {
		return nil, fmt.Errorf("remote predict: %w", err)
	}
	if len(res.Prediction) == 0 {
		return nil, fmt.Errorf("remote predict: empty prediction")
	}
	return &res, nil
}

func (c *remoteProbClassifier) PredictProba(ctx context.Context, row []float64) (float64, error) {
	res, err := c.call(ctx, row)
	if err != nil {
		return 0, err
	}
	if len(res.Probability) == 0 {
		return 0, fmt.Errorf("remote predict: no probability returned")
	}
	return res.Probability[0], nil
}

// PredictWithProba returns label and probability from a single round trip.
func (c *remoteProbClassifier) PredictWithProba(ctx context.Context, row []float64) (int, float64, error) {
	res, err := c.call(ctx, row)
	if err != nil {
		return 0, 0, err
	}
	if len(res.Probability) == 0 {
		return 0, 0, fmt.Errorf("remote predict: no probability returned")
	}
	return res.Prediction[0], res.Probability[0], nil
}

var (
	_ domsvc.Classifier            = (*RemoteClassifier)(nil)
	_ domsvc.ProbabilityClassifier = (*remoteProbClassifier)(nil)
)
