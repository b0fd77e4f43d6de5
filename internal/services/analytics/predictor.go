package analytics

import (
	"context"
	"fmt"

	"CrashRadar/internal/domain/models"
	domsvc "CrashRadar/internal/domain/service"
	"CrashRadar/internal/services/features"
)

// jointPredictor is implemented by classifiers that answer label and probability in one call.
type jointPredictor interface {
	PredictWithProba(ctx context.Context, row []float64) (int, float64, error)
}

// pinger is implemented by classifiers backed by an external process.
type pinger interface {
	Ping(ctx context.Context) error
}

// Predictor runs the frozen classifier on feature vectors built under a contract.
// It holds no mutable state and is safe for concurrent use.
type Predictor struct {
	model    domsvc.Classifier
	contract features.Contract
}

// NewPredictor binds a loaded model to the contract its inputs are built with.
// It fails when the two disagree on feature count or order.
func NewPredictor(model domsvc.Classifier, contract features.Contract) (*Predictor, error) {
	if err := ValidateContract(model, contract); err != nil {
		return nil, err
	}
	return &Predictor{model: model, contract: contract}, nil
}

// ValidateContract checks that the model was trained on exactly the contract's feature order.
func ValidateContract(model domsvc.Classifier, contract features.Contract) error {
	if err := contract.Validate(); err != nil {
		return err
	}
	want := contract.FeatureNames()
	got := model.FeatureNames()
	if len(got) != len(want) {
		return fmt.Errorf("%w: model %s takes %d features, contract %s produces %d",
			models.ErrFeatureWidth, model.Kind(), len(got), contract.Version, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("feature %d: model expects %q, contract %s produces %q",
				i, got[i], contract.Version, want[i])
		}
	}
	return nil
}

// Predict classifies v. The probability is set only when the model supports it.
func (p *Predictor) Predict(ctx context.Context, v models.FeatureVector) (models.Prediction, error) {
	if v.Len() != len(p.model.FeatureNames()) {
		return models.Prediction{}, fmt.Errorf("%w: got %d, want %d", models.ErrFeatureWidth, v.Len(), len(p.model.FeatureNames()))
	}

	if jp, ok := p.model.(jointPredictor); ok {
		label, proba, err := jp.PredictWithProba(ctx, v.Values)
		if err != nil {
			return models.Prediction{}, fmt.Errorf("predict: %w", err)
		}
		return models.Prediction{Label: label, Probability: &proba}, nil
	}

	label, err := p.model.Predict(ctx, v.Values)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("predict: %w", err)
	}
	out := models.Prediction{Label: label}

	if pc, ok := p.model.(domsvc.ProbabilityClassifier); ok {
		proba, err := pc.PredictProba(ctx, v.Values)
		if err != nil {
			return models.Prediction{}, fmt.Errorf("predict proba: %w", err)
		}
		out.Probability = &proba
	}
	return out, nil
}

// Ready reports whether the model can serve predictions. Remote models are
// pinged; in-process models score an all-zero row.
func (p *Predictor) Ready(ctx context.Context) error {
	if pm, ok := p.model.(pinger); ok {
		return pm.Ping(ctx)
	}
	if _, err := p.model.Predict(ctx, make([]float64, len(p.model.FeatureNames()))); err != nil {
		return fmt.Errorf("model %s: %w", p.model.Kind(), err)
	}
	return nil
}

// Contract returns the feature contract the predictor was validated against.
func (p *Predictor) Contract() features.Contract { return p.contract }

// Info describes the served model.
func (p *Predictor) Info() models.ModelInfo {
	_, proba := p.model.(domsvc.ProbabilityClassifier)
	return models.ModelInfo{
		Kind:            p.model.Kind(),
		ContractVersion: p.contract.Version,
		Features:        p.contract.FeatureNames(),
		Probability:     proba,
	}
}
