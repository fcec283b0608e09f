package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mchmarny/cardio/pkg/risk"
)

// FallbackConfidence is reported when the classifier can't produce
// probabilities. It is not calibrated.
const FallbackConfidence = 85.0

const percent = 100.0

var (
	// ErrUnavailable is returned for every prediction when no classifier
	// was loaded at startup.
	ErrUnavailable = errors.New("model not loaded")

	// ErrPrediction is returned when the classifier output can't be used.
	ErrPrediction = errors.New("prediction failed")
)

// Classifier predicts a 0/1 label for each row of x.
type Classifier interface {
	Predict(x [][]float64) ([]int, error)
}

// ProbabilisticClassifier also reports per-class probabilities for each
// row of x, ordered by class label.
type ProbabilisticClassifier interface {
	Classifier
	PredictProba(x [][]float64) ([][]float64, error)
}

// Capability describes what the loaded classifier can do.
type Capability string

const (
	CapabilityNone        Capability = "none"
	CapabilityLabel       Capability = "label"
	CapabilityProbability Capability = "probability"
)

// Info describes the loaded artifact.
type Info struct {
	Kind       string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	Version    string     `json:"version,omitempty" yaml:"version,omitempty"`
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`
	Capability Capability `json:"capability" yaml:"capability"`
}

// Prediction is the classifier output for one patient.
type Prediction struct {
	Label      int     `json:"prediction" yaml:"prediction"`
	RiskScore  float64 `json:"risk_score" yaml:"risk_score"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	// Calibrated is false when Confidence is FallbackConfidence.
	Calibrated bool `json:"confidence_calibrated" yaml:"confidence_calibrated"`
}

// Model is the process-wide, read-only classifier. It is safe for
// concurrent use; nothing mutates it after construction.
type Model struct {
	clf   Classifier
	proba ProbabilisticClassifier
	info  Info
	err   error
}

// New wraps a classifier, detecting its capability once.
func New(clf Classifier, info Info) *Model {
	if clf == nil {
		return Unavailable(errors.New("classifier required"))
	}

	m := &Model{clf: clf, info: info}
	if p, ok := clf.(ProbabilisticClassifier); ok {
		m.proba = p
		m.info.Capability = CapabilityProbability
	} else {
		m.info.Capability = CapabilityLabel
	}
	return m
}

// Unavailable returns a model that fails every prediction with cause.
func Unavailable(cause error) *Model {
	if cause == nil {
		cause = ErrUnavailable
	}
	return &Model{
		info: Info{Capability: CapabilityNone},
		err:  cause,
	}
}

// Available reports whether a classifier was loaded.
func (m *Model) Available() bool {
	return m != nil && m.clf != nil
}

// Err returns the load error of an unavailable model.
func (m *Model) Err() error {
	if m == nil {
		return ErrUnavailable
	}
	return m.err
}

// Info returns the artifact metadata.
func (m *Model) Info() Info {
	if m == nil {
		return Info{Capability: CapabilityNone}
	}
	return m.info
}

// Predict scores a single feature vector.
func (m *Model) Predict(v risk.Vector) (*Prediction, error) {
	if !m.Available() {
		err := m.Err()
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	x, err := matrix(v)
	if err != nil {
		return nil, err
	}

	labels, err := m.clf.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	if len(labels) != 1 {
		return nil, fmt.Errorf("%w: expected 1 label, got %d", ErrPrediction, len(labels))
	}
	label := labels[0]
	if label != 0 && label != 1 {
		return nil, fmt.Errorf("%w: unexpected label %d", ErrPrediction, label)
	}

	p := &Prediction{
		Label:      label,
		RiskScore:  float64(label) * percent,
		Confidence: FallbackConfidence,
	}

	if m.proba == nil {
		slog.Debug("classifier has no probabilities, using fallback confidence",
			"label", label, "confidence", FallbackConfidence)
		return p, nil
	}

	rows, err := m.proba.PredictProba(x)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	if len(rows) != 1 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: expected 1 probability row, got %v", ErrPrediction, rows)
	}

	row := rows[0]
	best := row[0]
	for _, v := range row {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil, fmt.Errorf("%w: probability out of range [0, 1]: %v", ErrPrediction, row)
		}
		if v > best {
			best = v
		}
	}
	p.Confidence = best * percent
	p.Calibrated = true
	if len(row) > 1 {
		p.RiskScore = row[1] * percent
	}
	return p, nil
}

// matrix reshapes v into the 1 x N calling shape of the classifier and
// checks its width against the published feature order.
func matrix(v risk.Vector) ([][]float64, error) {
	row := v.Slice()
	if len(row) != len(risk.FeatureNames) {
		return nil, fmt.Errorf("%w: feature vector has %d values, classifier expects %d",
			ErrPrediction, len(row), len(risk.FeatureNames))
	}
	return [][]float64{row}, nil
}
