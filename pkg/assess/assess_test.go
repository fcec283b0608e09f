package assess

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mchmarny/cardio/pkg/model"
	"github.com/mchmarny/cardio/pkg/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClassifier struct {
	label int
}

func (c fixedClassifier) Predict(_ [][]float64) ([]int, error) {
	return []int{c.label}, nil
}

type fixedProba struct {
	fixedClassifier
	high float64
}

func (c fixedProba) PredictProba(_ [][]float64) ([][]float64, error) {
	return [][]float64{{1 - c.high, c.high}}, nil
}

func patient() map[string]any {
	return map[string]any{
		"age":         65,
		"gender":      1,
		"height":      170,
		"weight":      70,
		"ap_hi":       120,
		"ap_lo":       80,
		"cholesterol": 180,
		"gluc":        90,
		"smoke":       0,
		"alco":        0,
		"active":      1,
	}
}

func newAssessor(clf model.Classifier) *Assessor {
	a := New(model.New(clf, model.Info{Kind: "test"}))
	a.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return a
}

func TestAssess_HealthyPatient(t *testing.T) {
	a := newAssessor(fixedProba{fixedClassifier{0}, 0.2})

	res, err := a.Assess(patient())
	require.NoError(t, err)
	assert.Equal(t, risk.LevelLow, res.Level)
	assert.InDelta(t, 20.0, res.Prediction.RiskScore, 1e-9)
	assert.InDelta(t, 80.0, res.Prediction.Confidence, 1e-9)
	assert.Equal(t, risk.CategoryNormal, res.Encoded.CholesterolCat)
	assert.Equal(t, risk.CategoryNormal, res.Encoded.GlucoseCat)
	assert.InDelta(t, 24.2, res.Encoded.BMI, 0.05)
	assert.Equal(t, []string{"advanced age"}, res.Explanation.Factors)
	assert.Contains(t, res.Explanation.Narrative, "low cardiovascular risk despite some concerns including advanced age.")
	assert.Equal(t, 2024, res.Time.Year())
}

func TestAssess_TierDrivesNarrative(t *testing.T) {
	tests := []struct {
		high  float64
		level risk.Level
		text  string
	}{
		{0.29, risk.LevelLow, "low cardiovascular risk"},
		{0.30, risk.LevelModerate, "moderate cardiovascular risk"},
		{0.70, risk.LevelHigh, "high cardiovascular risk"},
	}

	for _, tt := range tests {
		a := newAssessor(fixedProba{fixedClassifier{1}, tt.high})
		res, err := a.Assess(patient())
		require.NoError(t, err)
		assert.Equal(t, tt.level, res.Level)
		assert.Equal(t, risk.TierFor(res.Prediction.RiskScore), res.Level)
		assert.Contains(t, res.Explanation.Narrative, tt.text)
	}
}

func TestAssess_HighCholesterolFirst(t *testing.T) {
	p := patient()
	p["age"] = 50
	p["cholesterol"] = 250

	res, err := newAssessor(fixedProba{fixedClassifier{1}, 0.9}).Assess(p)
	require.NoError(t, err)
	assert.Equal(t, risk.LevelHigh, res.Level)
	assert.Equal(t, risk.CategoryWellAboveNormal, res.Encoded.CholesterolCat)
	require.NotEmpty(t, res.Explanation.Factors)
	assert.True(t, strings.HasPrefix(res.Explanation.Factors[0], "critically high cholesterol"))
}

func TestAssess_LabelOnlyClassifier(t *testing.T) {
	res, err := newAssessor(fixedClassifier{1}).Assess(patient())
	require.NoError(t, err)
	assert.Equal(t, model.FallbackConfidence, res.Prediction.Confidence)
	assert.Equal(t, 100.0, res.Prediction.RiskScore)
	assert.False(t, res.Prediction.Calibrated)
	assert.Equal(t, risk.LevelHigh, res.Level)

	res, err = newAssessor(fixedClassifier{0}).Assess(patient())
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Prediction.RiskScore)
	assert.Equal(t, risk.LevelLow, res.Level)
}

func TestAssess_Errors(t *testing.T) {
	a := newAssessor(fixedClassifier{0})

	_, err := a.Assess(nil)
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = a.Assess(map[string]any{})
	assert.ErrorIs(t, err, ErrNoInput)

	p := patient()
	p["height"] = 0
	res, err := a.Assess(p)
	assert.ErrorIs(t, err, risk.ErrComputation)
	assert.Nil(t, res)

	p = patient()
	p["cholesterol"] = "n/a"
	_, err = a.Assess(p)
	assert.ErrorIs(t, err, risk.ErrInvalidInput)
}

func TestAssess_ModelUnavailable(t *testing.T) {
	a := New(model.Unavailable(errors.New("missing artifact")))
	res, err := a.Assess(patient())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.False(t, a.Model().Available())
}

func TestAssess_Idempotent(t *testing.T) {
	a := newAssessor(fixedProba{fixedClassifier{1}, 0.55})
	p := patient()
	p["smoke"] = 1
	p["cholesterol"] = 220

	first, err := a.Assess(p)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		next, err := a.Assess(p)
		require.NoError(t, err)
		assert.Equal(t, first.Explanation, next.Explanation)
		assert.True(t, slices.Equal(first.Explanation.Factors, next.Explanation.Factors))
	}
}
