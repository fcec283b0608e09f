package risk

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	advancedAgeYears  = 60.0
	hypertensionHi    = 140.0 // mmHg systolic
	hypertensionLo    = 90.0  // mmHg diastolic
	obeseBMI          = 30.0
	overweightBMI     = 25.0
	lowFactorLimit    = 2
	elevatedFactorMax = 3

	narrativePrefix = "Based on the provided patient data, the model predicts a "

	defaultModerateReason = "borderline clinical parameters"
	defaultHighReason     = "multiple high-risk clinical factors"
)

// Explanation is the human-readable rationale of an assessment.
type Explanation struct {
	Factors   []string `json:"factors" yaml:"factors"`
	Narrative string   `json:"narrative" yaml:"narrative"`
}

// Factors lists the contributing-factor phrases for a patient. The order is
// fixed: age, cholesterol, glucose, blood pressure, lifestyle, body mass.
// Categories come from enc and are never re-derived here. Age is compared
// in fractional years, so 60.5 counts as advanced age.
func Factors(in *PatientInput, enc *Encoded) []string {
	factors := make([]string, 0)
	if in == nil || enc == nil {
		return factors
	}

	if in.Age > advancedAgeYears {
		factors = append(factors, "advanced age")
	}

	switch enc.CholesterolCat {
	case CategoryWellAboveNormal:
		factors = append(factors, fmt.Sprintf("critically high cholesterol levels (%s mg/dL, well above normal)", labValue(in.Cholesterol)))
	case CategoryAboveNormal:
		factors = append(factors, fmt.Sprintf("elevated cholesterol levels (%s mg/dL, above normal)", labValue(in.Cholesterol)))
	}

	switch enc.GlucoseCat {
	case CategoryWellAboveNormal:
		factors = append(factors, fmt.Sprintf("high fasting glucose levels (%s mg/dL, indicative of diabetes)", labValue(in.Glucose)))
	case CategoryAboveNormal:
		factors = append(factors, fmt.Sprintf("elevated fasting glucose levels (%s mg/dL, prediabetes range)", labValue(in.Glucose)))
	}

	if in.Systolic > hypertensionHi || in.Diastolic > hypertensionLo {
		factors = append(factors, fmt.Sprintf("hypertension (%s/%s mmHg)", pressure(in.Systolic), pressure(in.Diastolic)))
	}

	lifestyle := make([]string, 0, 3)
	if in.Smoke == 1 {
		lifestyle = append(lifestyle, "smoking")
	}
	if in.Alcohol == 1 {
		lifestyle = append(lifestyle, "alcohol consumption")
	}
	if in.Active == 0 {
		lifestyle = append(lifestyle, "lack of physical activity")
	}
	if len(lifestyle) > 0 {
		factors = append(factors, fmt.Sprintf("lifestyle factors (%s)", strings.Join(lifestyle, ", ")))
	}

	switch {
	case enc.BMI > obeseBMI:
		factors = append(factors, fmt.Sprintf("obesity (BMI %.1f)", enc.BMI))
	case enc.BMI > overweightBMI:
		factors = append(factors, fmt.Sprintf("overweight status (BMI %.1f)", enc.BMI))
	}

	return factors
}

// Explain renders the narrative for an already tiered assessment.
func Explain(in *PatientInput, enc *Encoded, level Level) *Explanation {
	factors := Factors(in, enc)
	return &Explanation{
		Factors:   factors,
		Narrative: narrative(level, factors),
	}
}

func narrative(level Level, factors []string) string {
	switch level {
	case LevelLow:
		if len(factors) == 0 {
			return narrativePrefix + "low cardiovascular risk. All vital parameters and lifestyle indicators appear to be within healthy ranges."
		}
		return narrativePrefix + "low cardiovascular risk despite some concerns including " +
			strings.Join(first(factors, lowFactorLimit), ", ") +
			". Overall vital signs are stable. Continue maintaining a healthy lifestyle."
	case LevelModerate:
		return narrativePrefix + "moderate cardiovascular risk, primarily influenced by: " +
			reasons(factors, defaultModerateReason) +
			". Preventive measures and lifestyle adjustments are recommended."
	default:
		return narrativePrefix + "high cardiovascular risk due to significant factors: " +
			reasons(factors, defaultHighReason) +
			". Immediate consultation with a healthcare provider is strongly advised."
	}
}

func reasons(factors []string, fallback string) string {
	if len(factors) == 0 {
		return fallback
	}
	return strings.Join(first(factors, elevatedFactorMax), "; ")
}

func first(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}

// labValue keeps at least one decimal so 250 reads as 250.0.
func labValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// pressure uses the shortest representation, so 150.0 reads as 150.
func pressure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
