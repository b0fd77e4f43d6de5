package model

import (
	"context"
	"fmt"
)

// Forest is a soft-voting random forest: the class probability is the mean of
// the normalized leaf distributions of its trees.
type Forest struct {
	names   []string
	classes []int
	trees   []Tree
}

func newForest(a Artifact) (*Forest, error) {
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("random forest artifact has no trees")
	}
	for i, t := range a.Trees {
		if err := t.validate(len(a.FeatureNames), len(a.Classes)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Forest{names: a.FeatureNames, classes: a.Classes, trees: a.Trees}, nil
}

func (f *Forest) Kind() string { return KindRandomForest }

func (f *Forest) FeatureNames() []string { return f.names }

// Predict returns the class with the highest averaged probability.
func (f *Forest) Predict(ctx context.Context, row []float64) (int, error) {
	proba, err := f.proba(row)
	if err != nil {
		return 0, err
	}
	return f.classes[argmax(proba)], nil
}

// PredictProba returns the averaged probability of the second class.
func (f *Forest) PredictProba(ctx context.Context, row []float64) (float64, error) {
	proba, err := f.proba(row)
	if err != nil {
		return 0, err
	}
	return proba[1], nil
}

func (f *Forest) proba(row []float64) ([]float64, error) {
	if err := checkWidth(f.names, row); err != nil {
		return nil, err
	}
	out := make([]float64, len(f.classes))
	for _, t := range f.trees {
		leaf := t.leafDistribution(row)
		for i, p := range leaf {
			out[i] += p
		}
	}
	n := float64(len(f.trees))
	for i := range out {
		out[i] /= n
	}
	return out, nil
}

func (t Tree) validate(nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if len(t.Value[i]) != nClasses {
			return fmt.Errorf("node %d has %d class values, want %d", i, len(t.Value[i]), nClasses)
		}
		if t.ChildrenLeft[i] == -1 {
			continue
		}
		if t.ChildrenLeft[i] <= i || t.ChildrenLeft[i] >= n || t.ChildrenRight[i] <= i || t.ChildrenRight[i] >= n {
			return fmt.Errorf("node %d has out-of-range children", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, t.Feature[i], nFeatures)
		}
	}
	return nil
}

// leafDistribution walks the tree and returns the leaf's class distribution normalized to 1.
func (t Tree) leafDistribution(row []float64) []float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if row[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	counts := t.Value[node]
	total := 0.0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
