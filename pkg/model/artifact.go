package model

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/mchmarny/cardio/pkg/risk"
	"gopkg.in/yaml.v3"
)

const (
	KindLogistic = "logistic"
	KindLinear   = "linear"

	defaultThreshold = 0.5
)

// ErrInvalidArtifact is returned when an artifact can't be decoded or
// doesn't match the feature contract.
var ErrInvalidArtifact = errors.New("invalid model artifact")

// Artifact is the serialized form of a linear classifier. JSON artifacts
// decode too since YAML is a superset.
type Artifact struct {
	Kind      string    `json:"kind" yaml:"kind"`
	Version   string    `json:"version,omitempty" yaml:"version,omitempty"`
	Features  []string  `json:"features" yaml:"features"`
	Intercept float64   `json:"intercept" yaml:"intercept"`
	Weights   []float64 `json:"weights" yaml:"weights"`
	Means     []float64 `json:"means,omitempty" yaml:"means,omitempty"`
	Scales    []float64 `json:"scales,omitempty" yaml:"scales,omitempty"`
	Threshold *float64  `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// ParseArtifact decodes and validates an artifact.
func ParseArtifact(b []byte) (*Artifact, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidArtifact)
	}

	var a Artifact
	if err := yaml.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks the artifact against the feature order of risk.Vector.
func (a *Artifact) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: artifact required", ErrInvalidArtifact)
	}

	switch a.Kind {
	case KindLogistic, KindLinear:
	default:
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalidArtifact, a.Kind)
	}

	if !slices.Equal(a.Features, risk.FeatureNames) {
		return fmt.Errorf("%w: feature order mismatch: artifact %v, expected %v",
			ErrInvalidArtifact, a.Features, risk.FeatureNames)
	}

	n := len(risk.FeatureNames)
	if len(a.Weights) != n {
		return fmt.Errorf("%w: expected %d weights, got %d", ErrInvalidArtifact, n, len(a.Weights))
	}
	if a.Means != nil && len(a.Means) != n {
		return fmt.Errorf("%w: expected %d means, got %d", ErrInvalidArtifact, n, len(a.Means))
	}
	if a.Scales != nil {
		if len(a.Scales) != n {
			return fmt.Errorf("%w: expected %d scales, got %d", ErrInvalidArtifact, n, len(a.Scales))
		}
		for i, s := range a.Scales {
			if s == 0 {
				return fmt.Errorf("%w: scale of %s is zero", ErrInvalidArtifact, a.Features[i])
			}
		}
	}

	if !finite(a.Intercept) {
		return fmt.Errorf("%w: intercept is not a finite number: %v", ErrInvalidArtifact, a.Intercept)
	}
	params := []struct {
		name   string
		values []float64
	}{
		{"weight", a.Weights},
		{"mean", a.Means},
		{"scale", a.Scales},
	}
	for _, p := range params {
		for i, v := range p.values {
			if !finite(v) {
				return fmt.Errorf("%w: %s of %s is not a finite number: %v", ErrInvalidArtifact, p.name, a.Features[i], v)
			}
		}
	}

	if a.Threshold != nil && (math.IsNaN(*a.Threshold) || *a.Threshold <= 0 || *a.Threshold >= 1) {
		return fmt.Errorf("%w: threshold must be in (0, 1), got %v", ErrInvalidArtifact, *a.Threshold)
	}
	return nil
}

// Classifier builds the classifier described by the artifact.
func (a *Artifact) Classifier() (Classifier, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	l := linear{
		intercept: a.Intercept,
		weights:   slices.Clone(a.Weights),
		means:     slices.Clone(a.Means),
		scales:    slices.Clone(a.Scales),
	}

	if a.Kind == KindLinear {
		return &l, nil
	}

	t := defaultThreshold
	if a.Threshold != nil {
		t = *a.Threshold
	}
	return &logistic{linear: l, threshold: t}, nil
}

// Info returns the metadata of the artifact.
func (a *Artifact) Info(source string) Info {
	return Info{Kind: a.Kind, Version: a.Version, Source: source}
}

// linear is a label-only classifier: sign of the decision function.
type linear struct {
	intercept float64
	weights   []float64
	means     []float64
	scales    []float64
}

func (l *linear) decision(row []float64) (float64, error) {
	if len(row) != len(l.weights) {
		return 0, fmt.Errorf("row has %d values, expected %d", len(row), len(l.weights))
	}
	z := l.intercept
	for i, x := range row {
		if l.means != nil {
			x -= l.means[i]
		}
		if l.scales != nil {
			x /= l.scales[i]
		}
		z += l.weights[i] * x
	}
	return z, nil
}

func (l *linear) Predict(x [][]float64) ([]int, error) {
	labels := make([]int, len(x))
	for i, row := range x {
		z, err := l.decision(row)
		if err != nil {
			return nil, err
		}
		if z >= 0 {
			labels[i] = 1
		}
	}
	return labels, nil
}

// logistic adds class probabilities to the linear decision function.
type logistic struct {
	linear
	threshold float64
}

func (l *logistic) PredictProba(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		z, err := l.decision(row)
		if err != nil {
			return nil, err
		}
		p := sigmoid(z)
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func (l *logistic) Predict(x [][]float64) ([]int, error) {
	proba, err := l.PredictProba(x)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for i, p := range proba {
		if p[1] >= l.threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
