package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Request field names.
const (
	FieldAge         = "age"
	FieldGender      = "gender"
	FieldHeight      = "height"
	FieldWeight      = "weight"
	FieldSystolic    = "ap_hi"
	FieldDiastolic   = "ap_lo"
	FieldCholesterol = "cholesterol"
	FieldGlucose     = "gluc"
	FieldSmoke       = "smoke"
	FieldAlcohol     = "alco"
	FieldActive      = "active"
)

var (
	// ErrInvalidInput is returned for missing or malformed patient fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrComputation is returned when derived values can't be computed
	// from otherwise well-formed input (e.g. zero height).
	ErrComputation = errors.New("computation error")

	errMissing = errors.New("required field is missing")
)

// PatientInput holds the raw vitals of a single patient.
type PatientInput struct {
	Age         float64 `json:"age" yaml:"age"`                 // years
	Gender      int     `json:"gender" yaml:"gender"`           // 1 or 2
	Height      float64 `json:"height" yaml:"height"`           // cm
	Weight      float64 `json:"weight" yaml:"weight"`           // kg
	Systolic    float64 `json:"ap_hi" yaml:"ap_hi"`             // mmHg
	Diastolic   float64 `json:"ap_lo" yaml:"ap_lo"`             // mmHg
	Cholesterol float64 `json:"cholesterol" yaml:"cholesterol"` // mg/dL
	Glucose     float64 `json:"gluc" yaml:"gluc"`               // mg/dL
	Smoke       int     `json:"smoke" yaml:"smoke"`
	Alcohol     int     `json:"alco" yaml:"alco"`
	Active      int     `json:"active" yaml:"active"`
}

// ParsePatient coerces a decoded request object into PatientInput.
//
// Age, height and weight tolerate absence (null, missing or empty string
// becomes 0) but never a malformed value. Lab values and blood pressure
// must be present numbers. Gender and the lifestyle flags must be present
// integers within their domain. Numbers may be sent as JSON numbers or
// numeric strings.
func ParsePatient(fields map[string]any) (*PatientInput, error) {
	var (
		in  PatientInput
		err error
	)

	lenient := []struct {
		name string
		dst  *float64
	}{
		{FieldAge, &in.Age},
		{FieldHeight, &in.Height},
		{FieldWeight, &in.Weight},
	}
	for _, f := range lenient {
		if *f.dst, err = lenientFloat(fields, f.name); err != nil {
			return nil, err
		}
	}

	strict := []struct {
		name string
		dst  *float64
	}{
		{FieldSystolic, &in.Systolic},
		{FieldDiastolic, &in.Diastolic},
		{FieldCholesterol, &in.Cholesterol},
		{FieldGlucose, &in.Glucose},
	}
	for _, f := range strict {
		if *f.dst, err = strictFloat(fields, f.name); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		name    string
		dst     *int
		allowed []int
	}{
		{FieldGender, &in.Gender, []int{1, 2}},
		{FieldSmoke, &in.Smoke, []int{0, 1}},
		{FieldAlcohol, &in.Alcohol, []int{0, 1}},
		{FieldActive, &in.Active, []int{0, 1}},
	}
	for _, f := range ints {
		if *f.dst, err = strictInt(fields, f.name, f.allowed...); err != nil {
			return nil, err
		}
	}

	return &in, nil
}

func lenientFloat(fields map[string]any, name string) (float64, error) {
	v, err := toFloat(fields[name])
	if errors.Is(err, errMissing) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidInput, name, err)
	}
	return v, nil
}

func strictFloat(fields map[string]any, name string) (float64, error) {
	v, err := toFloat(fields[name])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidInput, name, err)
	}
	return v, nil
}

func strictInt(fields map[string]any, name string, allowed ...int) (int, error) {
	v, err := toFloat(fields[name])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidInput, name, err)
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %s: expected an integer, got %v", ErrInvalidInput, name, v)
	}
	i := int(v)
	for _, a := range allowed {
		if i == a {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s: value %d not in %v", ErrInvalidInput, name, i, allowed)
}

// toFloat converts a decoded JSON/YAML value into a finite float64.
func toFloat(v any) (float64, error) {
	var (
		f   float64
		err error
	)

	switch t := v.(type) {
	case nil:
		return 0, errMissing
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		f, err = t.Float64()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, errMissing
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}

	if err != nil {
		return 0, fmt.Errorf("not a number: %v", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return f, nil
}
