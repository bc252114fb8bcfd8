package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"github.com/telemetrydp/dprelease/pkg/errors"
)

// Database variants the ETL collaborator exports baselines for.
const (
	VariantMini = "mini"
	VariantFull = "full"
)

// DefaultEpsilons is the reference privacy grid, from very strong privacy
// to the no-noise sentinel. All queries and both mechanisms share it.
var DefaultEpsilons = []float64{
	0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 20.0, 50.0, math.Inf(1),
}

const (
	// DefaultDelta is the Gaussian mechanism's failure probability bound.
	DefaultDelta = 1e-6
	// DefaultBaseSeed seeds the per-epsilon generators; the seed for the
	// i-th epsilon is DefaultBaseSeed + i.
	DefaultBaseSeed = 42
)

// Config is the externally supplied, static-for-the-run configuration
// surface: the epsilon grid, delta, the base seed, and where the baseline
// and output tables live.
type Config struct {
	DataDir  string    `mapstructure:"data_dir"`
	Variant  string    `mapstructure:"variant"`
	Delta    float64   `mapstructure:"delta"`
	BaseSeed int64     `mapstructure:"base_seed"`
	Epsilons []float64 `mapstructure:"-"`
}

// Load reads configuration from an optional file plus DPRELEASE_* env
// variables, with reference defaults.
func Load(cfgFile string) (*Config, error) {
	cfg := &Config{
		DataDir:  "data",
		Variant:  VariantMini,
		Delta:    DefaultDelta,
		BaseSeed: DefaultBaseSeed,
		Epsilons: append([]float64(nil), DefaultEpsilons...),
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("dprelease")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DPRELEASE")
	v.AutomaticEnv()

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("variant", cfg.Variant)
	v.SetDefault("delta", cfg.Delta)
	v.SetDefault("base_seed", cfg.BaseSeed)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, "CONFIG_READ_FAILED",
				fmt.Sprintf("failed to read config file %s", cfgFile))
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration, "CONFIG_PARSE_FAILED",
			"failed to unmarshal configuration")
	}

	// The epsilon grid may contain "inf", so it arrives as strings.
	if raw := v.GetStringSlice("epsilons"); len(raw) > 0 {
		grid := make([]float64, 0, len(raw))
		for _, s := range raw {
			eps, err := ParseEpsilon(s)
			if err != nil {
				return nil, err
			}
			grid = append(grid, eps)
		}
		cfg.Epsilons = grid
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.Variant != VariantMini && c.Variant != VariantFull {
		return errors.WrapError(errors.ErrUnknownVariant, errors.ErrorTypeConfiguration, "UNKNOWN_VARIANT",
			fmt.Sprintf("variant must be %q or %q, got %q", VariantMini, VariantFull, c.Variant))
	}
	if c.Delta <= 0 || c.Delta >= 1 {
		return errors.WrapError(errors.ErrInvalidDelta, errors.ErrorTypeConfiguration, "INVALID_DELTA",
			fmt.Sprintf("delta must be in (0, 1), got %g", c.Delta))
	}
	if len(c.Epsilons) == 0 {
		return errors.NewConfigurationError("EMPTY_EPSILON_GRID", "at least one epsilon value is required")
	}
	for _, eps := range c.Epsilons {
		if eps < 0 || math.IsNaN(eps) {
			return errors.WrapError(errors.ErrInvalidEpsilon, errors.ErrorTypeConfiguration, "INVALID_EPSILON",
				fmt.Sprintf("epsilon must be non-negative, got %g", eps))
		}
	}
	return nil
}

// BaselineDir returns the directory the ETL collaborator wrote the baseline
// tables to for the configured variant.
func (c *Config) BaselineDir() string {
	return filepath.Join(c.DataDir, "baseline_"+c.Variant)
}

// MechanismDir returns the root output directory for one mechanism run.
func (c *Config) MechanismDir(mechanism string) string {
	return filepath.Join(c.DataDir, fmt.Sprintf("dp_%s_%s", mechanism, c.Variant))
}

// EpsilonDir returns the output directory for one (mechanism, epsilon) pair.
func (c *Config) EpsilonDir(mechanism string, epsilon float64) string {
	return filepath.Join(c.MechanismDir(mechanism), "eps_"+EpsilonLabel(epsilon))
}

// SummaryPath returns the path of a mechanism run's summary table.
func (c *Config) SummaryPath(mechanism string) string {
	return filepath.Join(c.MechanismDir(mechanism), mechanism+"_metric_summary.csv")
}

// EpsilonLabel renders an epsilon value for paths and summary rows: "inf"
// for the no-noise sentinel, otherwise its canonical decimal string.
func EpsilonLabel(epsilon float64) string {
	if math.IsInf(epsilon, 1) {
		return "inf"
	}
	return strconv.FormatFloat(epsilon, 'g', -1, 64)
}

// ParseEpsilon parses an epsilon label back into a value.
func ParseEpsilon(s string) (float64, error) {
	if s == "inf" {
		return math.Inf(1), nil
	}
	eps, err := strconv.ParseFloat(s, 64)
	if err != nil || eps < 0 || math.IsNaN(eps) {
		return 0, errors.WrapError(errors.ErrInvalidEpsilon, errors.ErrorTypeConfiguration, "INVALID_EPSILON",
			fmt.Sprintf("cannot parse epsilon %q", s))
	}
	return eps, nil
}
