package capture

import "testing"

func TestTierOf(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Tier
	}{
		{0.99, TierHigh},
		{0.85, TierHigh},
		{0.8499, TierMedium},
		{0.70, TierMedium},
		{0.6999, TierLow},
		{0.50, TierLow},
		{0, TierLow},
	}
	for _, tt := range tests {
		if got := TierOf(tt.confidence); got != tt.want {
			t.Errorf("TierOf(%v) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}
