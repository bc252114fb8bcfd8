package mechanism

import "math"

// GaussianSigma returns the Gaussian noise scale for (epsilon, delta)-DP:
//
//	sigma = (Δ2 / ε) * sqrt(2 * ln(1.25 / δ))
//
// The function is total over ε ∈ [0, ∞]: ε = ∞ means no noise (scale 0) and
// ε = 0 means total suppression, reported as +Inf so callers can refuse the
// release instead of silently zero-noising.
func GaussianSigma(l2Sensitivity, epsilon, delta float64) float64 {
	if math.IsInf(epsilon, 1) {
		return 0
	}
	if epsilon == 0 {
		return math.Inf(1)
	}
	return (l2Sensitivity / epsilon) * math.Sqrt(2.0*math.Log(1.25/delta))
}

// LaplaceScale returns the Laplace noise scale for pure ε-DP:
//
//	b = Δ1 / ε
//
// with the same boundary semantics as GaussianSigma at ε ∈ {0, ∞}.
func LaplaceScale(l1Sensitivity, epsilon float64) float64 {
	if math.IsInf(epsilon, 1) {
		return 0
	}
	if epsilon == 0 {
		return math.Inf(1)
	}
	return l1Sensitivity / epsilon
}
