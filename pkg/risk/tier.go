package risk

// Level is the risk tier derived from a risk score.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
)

// Tier boundaries on the 0-100 risk score. Each boundary belongs to the
// tier above it.
const (
	ModerateThreshold = 30.0
	HighThreshold     = 70.0
)

// TierFor maps a risk score to its tier.
func TierFor(score float64) Level {
	switch {
	case score >= HighThreshold:
		return LevelHigh
	case score >= ModerateThreshold:
		return LevelModerate
	default:
		return LevelLow
	}
}
