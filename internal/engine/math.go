package engine

import "math"

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

// round2 rounds half away from zero to two decimals so repeated runs
// serialize identically.
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
