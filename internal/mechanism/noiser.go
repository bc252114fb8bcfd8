package mechanism

import (
	"math"
	"math/rand"

	"github.com/telemetrydp/dprelease/internal/registry"
	"github.com/telemetrydp/dprelease/pkg/errors"
)

// Mechanism names as they appear in output paths and summary rows.
const (
	NameGaussian = "gaussian"
	NameLaplace  = "laplace"
)

// Noiser is one noise family: it calibrates a scale from a descriptor's
// aggregate sensitivity norm and draws zero-mean samples at that scale.
// Sampling takes the caller's generator so a run's draws are fully
// determined by the seed the driver supplies.
type Noiser interface {
	Name() string
	Scale(desc registry.Descriptor, epsilon float64) float64
	Sample(rng *rand.Rand, scale float64) float64
	ValidateParameters(epsilon float64) error
}

// GaussianNoiser draws N(0, sigma^2) noise calibrated from the L2
// sensitivity norm for (ε, δ)-DP.
type GaussianNoiser struct {
	Delta float64
}

// NewGaussianNoiser creates a Gaussian noiser with the given delta.
func NewGaussianNoiser(delta float64) (*GaussianNoiser, error) {
	if delta <= 0 || delta >= 1 {
		return nil, errors.WrapError(errors.ErrInvalidDelta, errors.ErrorTypePrivacy, "INVALID_DELTA",
			"gaussian mechanism requires delta in (0, 1)")
	}
	return &GaussianNoiser{Delta: delta}, nil
}

func (g *GaussianNoiser) Name() string { return NameGaussian }

func (g *GaussianNoiser) Scale(desc registry.Descriptor, epsilon float64) float64 {
	return GaussianSigma(desc.L2Sensitivity(), epsilon, g.Delta)
}

func (g *GaussianNoiser) Sample(rng *rand.Rand, scale float64) float64 {
	return rng.NormFloat64() * scale
}

func (g *GaussianNoiser) ValidateParameters(epsilon float64) error {
	if epsilon < 0 || math.IsNaN(epsilon) {
		return errors.WrapError(errors.ErrInvalidEpsilon, errors.ErrorTypePrivacy, "INVALID_EPSILON",
			"epsilon must be in [0, +Inf]")
	}
	return nil
}

// LaplaceNoiser draws Laplace(0, b) noise calibrated from the L1 sensitivity
// norm for pure ε-DP.
type LaplaceNoiser struct{}

// NewLaplaceNoiser creates a Laplace noiser.
func NewLaplaceNoiser() *LaplaceNoiser { return &LaplaceNoiser{} }

func (l *LaplaceNoiser) Name() string { return NameLaplace }

func (l *LaplaceNoiser) Scale(desc registry.Descriptor, epsilon float64) float64 {
	return LaplaceScale(desc.L1Sensitivity(), epsilon)
}

// Sample draws from Laplace(0, scale) by inverse transform.
func (l *LaplaceNoiser) Sample(rng *rand.Rand, scale float64) float64 {
	u := rng.Float64()
	if u < 0.5 {
		return scale * math.Log(2*u)
	}
	return -scale * math.Log(2*(1-u))
}

func (l *LaplaceNoiser) ValidateParameters(epsilon float64) error {
	if epsilon < 0 || math.IsNaN(epsilon) {
		return errors.WrapError(errors.ErrInvalidEpsilon, errors.ErrorTypePrivacy, "INVALID_EPSILON",
			"epsilon must be in [0, +Inf]")
	}
	return nil
}

// ForName returns the noiser for a mechanism name.
func ForName(name string, delta float64) (Noiser, error) {
	switch name {
	case NameGaussian:
		return NewGaussianNoiser(delta)
	case NameLaplace:
		return NewLaplaceNoiser(), nil
	default:
		return nil, errors.WrapError(errors.ErrUnknownMechanism, errors.ErrorTypePrivacy, "UNKNOWN_MECHANISM",
			"mechanism must be gaussian or laplace")
	}
}
