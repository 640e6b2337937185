package domain

import "math"

// Basis is a probability on an exact integer scale: 1.0 == 10000, 1¢ == 100.
// Threshold comparisons go through Basis so that 0.57 vs 57¢ is never
// decided by float rounding.
type Basis int

const basisPerCent = 100

// ProbabilityBasis rounds a probability to the nearest basis unit.
func ProbabilityBasis(p float64) Basis {
	return Basis(math.Round(p * 10000))
}

// CentsBasis converts an integer price in cents to basis units.
func CentsBasis(cents int) Basis {
	return Basis(cents * basisPerCent)
}

// CentsToProbability convierte centavos (0–100) a probabilidad (0–1).
func CentsToProbability(cents int) float64 {
	return float64(cents) / 100.0
}

// ValidCents devuelve true si el precio está en [0,100].
func ValidCents(c int) bool {
	return c >= 0 && c <= 100
}

// ClampCents limita un precio a [0,100] tras aplicar slippage.
func ClampCents(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
