package capture

// Tier is the presentation-only confidence classification of a detection.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// TierOf maps a confidence score to its tier. Boundary values belong to the
// higher tier: 0.85 is high, 0.70 is medium.
func TierOf(confidence float64) Tier {
	switch {
	case confidence >= 0.85:
		return TierHigh
	case confidence >= 0.70:
		return TierMedium
	default:
		return TierLow
	}
}
