package mechanism

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGaussianSigma(t *testing.T) {
	want := 2.0 * math.Sqrt(2.0*math.Log(1.25/1e-6))
	assert.InDelta(t, want, GaussianSigma(2.0, 1.0, 1e-6), 1e-12)
}

func TestGaussianSigmaBoundaries(t *testing.T) {
	assert.Zero(t, GaussianSigma(2.0, math.Inf(1), 1e-6))
	assert.True(t, math.IsInf(GaussianSigma(2.0, 0, 1e-6), 1))
}

func TestLaplaceScale(t *testing.T) {
	assert.Equal(t, 2.0, LaplaceScale(5.0, 2.5))
}

func TestLaplaceScaleBoundaries(t *testing.T) {
	assert.Zero(t, LaplaceScale(5.0, math.Inf(1)))
	assert.True(t, math.IsInf(LaplaceScale(5.0, 0), 1))
}

func TestScalesShrinkWithEpsilon(t *testing.T) {
	epsilons := []float64{0.01, 0.1, 1.0, 10.0}
	for i := 1; i < len(epsilons); i++ {
		assert.Less(t, GaussianSigma(1.0, epsilons[i], 1e-6), GaussianSigma(1.0, epsilons[i-1], 1e-6))
		assert.Less(t, LaplaceScale(1.0, epsilons[i]), LaplaceScale(1.0, epsilons[i-1]))
	}
}
