package utils

import "math"

// Round2 rounds to two fractional digits, the precision of scores and money
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp01 bounds v into [0, 1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// MaxInt returns the larger of two ints
func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
