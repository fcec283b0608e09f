// Package assess runs the request-to-explanation pipeline: field parsing,
// feature assembly, classification, tiering and explanation.
package assess

import (
	"errors"
	"fmt"
	"time"

	"github.com/mchmarny/cardio/pkg/model"
	"github.com/mchmarny/cardio/pkg/risk"
)

// ErrNoInput is returned when the request carries no patient fields.
var ErrNoInput = errors.New("no input data received")

// Assessment is the complete, request-scoped result for one patient.
type Assessment struct {
	Prediction  model.Prediction  `json:"prediction" yaml:"prediction"`
	Level       risk.Level        `json:"risk_level" yaml:"risk_level"`
	Input       risk.PatientInput `json:"input" yaml:"input"`
	Encoded     risk.Encoded      `json:"encoded" yaml:"encoded"`
	Explanation risk.Explanation  `json:"explanation" yaml:"explanation"`
	Time        time.Time         `json:"time" yaml:"time"`
}

// Assessor scores patients against a loaded model. The zero value is not
// usable; see New.
type Assessor struct {
	model *model.Model
	now   func() time.Time
}

// New returns an Assessor backed by m. m may be unavailable, in which case
// every assessment fails with model.ErrUnavailable.
func New(m *model.Model) *Assessor {
	return &Assessor{model: m, now: time.Now}
}

// Model returns the model backing the assessor.
func (a *Assessor) Model() *model.Model {
	return a.model
}

// Assess scores a decoded request object.
func (a *Assessor) Assess(fields map[string]any) (*Assessment, error) {
	if len(fields) == 0 {
		return nil, ErrNoInput
	}

	in, err := risk.ParsePatient(fields)
	if err != nil {
		return nil, err
	}
	return a.assess(in)
}

// assess scores parsed patient input.
func (a *Assessor) assess(in *risk.PatientInput) (*Assessment, error) {
	enc, vec, err := risk.Assemble(in)
	if err != nil {
		return nil, err
	}

	p, err := a.model.Predict(vec)
	if err != nil {
		return nil, fmt.Errorf("error scoring patient: %w", err)
	}

	level := risk.TierFor(p.RiskScore)
	exp := risk.Explain(in, enc, level)

	return &Assessment{
		Prediction:  *p,
		Level:       level,
		Input:       *in,
		Encoded:     *enc,
		Explanation: *exp,
		Time:        a.now(),
	}, nil
}
