package model

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Logistic is a binary logistic regression: p = sigmoid(coef·x + intercept).
type Logistic struct {
	names     []string
	classes   []int
	coef      []float64
	intercept float64
}

func newLogistic(a Artifact) (*Logistic, error) {
	if len(a.Coef) != len(a.FeatureNames) {
		return nil, fmt.Errorf("logistic artifact has %d coefficients for %d features", len(a.Coef), len(a.FeatureNames))
	}
	return &Logistic{names: a.FeatureNames, classes: a.Classes, coef: a.Coef, intercept: a.Intercept}, nil
}

func (m *Logistic) Kind() string { return KindLogisticRegression }

func (m *Logistic) FeatureNames() []string { return m.names }

func (m *Logistic) Predict(ctx context.Context, row []float64) (int, error) {
	p, err := m.PredictProba(ctx, row)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return m.classes[1], nil
	}
	return m.classes[0], nil
}

func (m *Logistic) PredictProba(ctx context.Context, row []float64) (float64, error) {
	if err := checkWidth(m.names, row); err != nil {
		return 0, err
	}
	z := floats.Dot(m.coef, row) + m.intercept
	return 1 / (1 + math.Exp(-z)), nil
}
