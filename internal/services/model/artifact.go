package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	domsvc "CrashRadar/internal/domain/service"
)

const (
	KindRandomForest       = "random_forest"
	KindLogisticRegression = "logistic_regression"
)

// Artifact is the portable on-disk form of a trained classifier.
// Tree arrays follow the scikit-learn tree_ layout: node i is a leaf when
// ChildrenLeft[i] == -1, otherwise rows with x[Feature[i]] <= Threshold[i] go left.
type Artifact struct {
	Kind         string    `json:"kind"`
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Classes      []int     `json:"classes"`
	Trees        []Tree    `json:"trees,omitempty"`
	Coef         []float64 `json:"coef,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
}

// Tree is one fitted decision tree. Value holds per-class counts (or fractions) per node.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

var ErrUnknownKind = errors.New("unknown model kind")

// Load reads and decodes a model artifact from path.
func Load(path string) (domsvc.ProbabilityClassifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses an artifact and builds the classifier it describes.
func Decode(r io.Reader) (domsvc.ProbabilityClassifier, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return a.Build()
}

// Build validates the artifact and returns the matching classifier.
func (a Artifact) Build() (domsvc.ProbabilityClassifier, error) {
	if len(a.FeatureNames) == 0 {
		return nil, errors.New("model artifact declares no feature names")
	}
	if len(a.Classes) != 2 {
		return nil, fmt.Errorf("model artifact must be binary, got %d classes", len(a.Classes))
	}
	switch a.Kind {
	case KindRandomForest:
		return newForest(a)
	case KindLogisticRegression:
		return newLogistic(a)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, a.Kind)
	}
}

func checkWidth(names []string, row []float64) error {
	if len(row) != len(names) {
		return fmt.Errorf("model expects %d features, got %d", len(names), len(row))
	}
	return nil
}
