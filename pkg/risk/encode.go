package risk

// Category is the ordinal severity class of a lab measurement.
// Only the values 1 through 3 are ever produced.
type Category int

const (
	CategoryNormal          Category = 1
	CategoryAboveNormal     Category = 2
	CategoryWellAboveNormal Category = 3
)

const (
	cholesterolAboveNormal     = 200.0 // mg/dL
	cholesterolWellAboveNormal = 240.0 // mg/dL
	glucoseAboveNormal         = 100.0 // mg/dL
	glucoseWellAboveNormalMax  = 125.0 // mg/dL, inclusive upper bound of above normal
)

// EncodeCholesterol maps total cholesterol in mg/dL to its category:
// < 200 normal, 200-239 above normal, >= 240 well above normal.
func EncodeCholesterol(mgdl float64) Category {
	switch {
	case mgdl < cholesterolAboveNormal:
		return CategoryNormal
	case mgdl < cholesterolWellAboveNormal:
		return CategoryAboveNormal
	default:
		return CategoryWellAboveNormal
	}
}

// EncodeGlucose maps fasting glucose in mg/dL to its category:
// < 100 normal, 100-125 above normal, anything higher well above normal.
func EncodeGlucose(mgdl float64) Category {
	switch {
	case mgdl < glucoseAboveNormal:
		return CategoryNormal
	case mgdl <= glucoseWellAboveNormalMax:
		return CategoryAboveNormal
	default:
		return CategoryWellAboveNormal
	}
}
