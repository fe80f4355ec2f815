package domain

import "math"

// ClampPercent converts a raw model confidence to a whole percent for
// display: clamp to [0,1], then round half up. This is strictly a
// formatting concern. Validation rejects out-of-range values instead of
// clamping, and the decision engine compares raw floats.
func ClampPercent(v float64) int {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return int(math.Round(v * 100))
}
