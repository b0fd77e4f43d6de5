package service

import "context"

// Classifier maps one feature row to a class label.
type Classifier interface {
	Predict(ctx context.Context, row []float64) (int, error)
	// FeatureNames lists the inputs the model was trained on, in order.
	FeatureNames() []string
	Kind() string
}

// ProbabilityClassifier is a Classifier that can also report the positive-class probability.
type ProbabilityClassifier interface {
	Classifier
	PredictProba(ctx context.Context, row []float64) (float64, error)
}
