package risk

import (
	"fmt"
	"math"
)

const (
	daysPerYear = 365.25
	cmPerMeter  = 100.0
)

// Positions of each feature in Vector. The order is the contract with the
// loaded classifier and must only change together with the model artifact.
const (
	IdxAgeDays = iota
	IdxGender
	IdxHeight
	IdxWeight
	IdxSystolic
	IdxDiastolic
	IdxCholesterolCat
	IdxGlucoseCat
	IdxSmoke
	IdxAlcohol
	IdxActive
	IdxBMI

	VectorLen
)

// FeatureNames lists the classifier inputs in Vector order.
var FeatureNames = []string{
	"age_days",
	"gender",
	"height_cm",
	"weight_kg",
	"ap_hi",
	"ap_lo",
	"cholesterol_cat",
	"glucose_cat",
	"smoke",
	"alco",
	"active",
	"bmi",
}

// Vector is the fixed-order numeric input of the classifier.
type Vector [VectorLen]float64

// Slice returns a copy of the vector as a slice.
func (v Vector) Slice() []float64 {
	s := make([]float64, VectorLen)
	copy(s, v[:])
	return s
}

// Encoded holds the values derived from PatientInput.
type Encoded struct {
	CholesterolCat Category `json:"cholesterol_cat" yaml:"cholesterol_cat"`
	GlucoseCat     Category `json:"glucose_cat" yaml:"glucose_cat"`
	AgeDays        float64  `json:"age_days" yaml:"age_days"`
	BMI            float64  `json:"bmi" yaml:"bmi"`
}

// BMI returns weight / (height in meters)^2. Non-positive height or weight
// is an ErrComputation, so the result is always finite.
func BMI(heightCM, weightKG float64) (float64, error) {
	if heightCM <= 0 {
		return 0, fmt.Errorf("%w: height must be greater than zero, got %v", ErrComputation, heightCM)
	}
	if weightKG <= 0 {
		return 0, fmt.Errorf("%w: weight must be greater than zero, got %v", ErrComputation, weightKG)
	}

	m := heightCM / cmPerMeter
	bmi := weightKG / (m * m)
	if math.IsInf(bmi, 0) || math.IsNaN(bmi) {
		return 0, fmt.Errorf("%w: bmi is not finite for height %v and weight %v", ErrComputation, heightCM, weightKG)
	}
	return bmi, nil
}

// Assemble derives the encoded features and builds the classifier vector.
func Assemble(in *PatientInput) (*Encoded, Vector, error) {
	var v Vector
	if in == nil {
		return nil, v, fmt.Errorf("%w: patient input required", ErrInvalidInput)
	}

	bmi, err := BMI(in.Height, in.Weight)
	if err != nil {
		return nil, v, err
	}

	enc := &Encoded{
		CholesterolCat: EncodeCholesterol(in.Cholesterol),
		GlucoseCat:     EncodeGlucose(in.Glucose),
		AgeDays:        in.Age * daysPerYear,
		BMI:            bmi,
	}

	v[IdxAgeDays] = enc.AgeDays
	v[IdxGender] = float64(in.Gender)
	v[IdxHeight] = in.Height
	v[IdxWeight] = in.Weight
	v[IdxSystolic] = in.Systolic
	v[IdxDiastolic] = in.Diastolic
	v[IdxCholesterolCat] = float64(enc.CholesterolCat)
	v[IdxGlucoseCat] = float64(enc.GlucoseCat)
	v[IdxSmoke] = float64(in.Smoke)
	v[IdxAlcohol] = float64(in.Alcohol)
	v[IdxActive] = float64(in.Active)
	v[IdxBMI] = enc.BMI

	return enc, v, nil
}
