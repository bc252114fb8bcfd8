package release

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/telemetrydp/dprelease/internal/config"
	"github.com/telemetrydp/dprelease/internal/dataset"
	"github.com/telemetrydp/dprelease/internal/evaluate"
	"github.com/telemetrydp/dprelease/internal/mechanism"
	"github.com/telemetrydp/dprelease/internal/registry"
	"github.com/telemetrydp/dprelease/pkg/errors"
)

// Driver runs one mechanism over every (query, epsilon) pair: load baseline,
// inject, evaluate, persist the noised table, and accumulate the summary.
// Failures are iteration-local: a missing baseline skips the query, any
// other failure skips that (query, epsilon) pair, and the run continues.
type Driver struct {
	cfg      *config.Config
	reg      *registry.Registry
	executor *mechanism.Executor
	logger   *logrus.Logger
}

// NewDriver creates a release driver.
func NewDriver(cfg *config.Config, reg *registry.Registry, executor *mechanism.Executor, logger *logrus.Logger) *Driver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Driver{cfg: cfg, reg: reg, executor: executor, logger: logger}
}

// Run executes the full (query x epsilon) pass and persists the noised
// tables plus the accumulated summary. The returned summary mirrors what was
// written to disk.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	mech := d.executor.Name()
	summary := &Summary{
		RunID:     uuid.NewString(),
		Mechanism: mech,
	}

	delta := math.NaN()
	if mech == mechanism.NameGaussian {
		delta = d.cfg.Delta
	}

	d.logger.WithFields(logrus.Fields{
		"run_id":    summary.RunID,
		"mechanism": mech,
		"database":  d.cfg.Variant,
		"baseline":  d.cfg.BaselineDir(),
		"epsilons":  len(d.cfg.Epsilons),
		"base_seed": d.cfg.BaseSeed,
	}).Info("Starting release run")

	for _, queryID := range d.reg.IDs() {
		desc, err := d.reg.Get(queryID)
		if err != nil {
			return nil, err
		}

		baselinePath := filepath.Join(d.cfg.BaselineDir(), desc.Filename)
		baseline, err := dataset.ReadCSV(baselinePath)
		if err != nil {
			d.logger.WithFields(logrus.Fields{
				"query": queryID,
				"file":  desc.Filename,
			}).WithError(err).Warn("Baseline not loadable, skipping query")
			continue
		}

		d.logger.WithFields(logrus.Fields{
			"query":  queryID,
			"file":   desc.Filename,
			"rows":   baseline.NumRows(),
			"metric": string(desc.Metric.Type),
		}).Info("Processing query")

		for epsIdx, epsilon := range d.cfg.Epsilons {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			// The seed depends only on the epsilon position so repeated
			// runs are reproducible draw for draw.
			seed := d.cfg.BaseSeed + int64(epsIdx)
			rng := rand.New(rand.NewSource(seed))

			if err := d.runIteration(summary, baseline, desc, epsilon, seed, rng, delta); err != nil {
				d.logger.WithFields(logrus.Fields{
					"query":   queryID,
					"epsilon": config.EpsilonLabel(epsilon),
				}).WithError(err).Error("Iteration failed, continuing")
			}
		}
	}

	if err := os.MkdirAll(d.cfg.MechanismDir(mech), 0o755); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeRelease, "OUTPUT_DIR_FAILED",
			"failed to create summary directory")
	}
	summaryPath := d.cfg.SummaryPath(mech)
	if err := summary.WriteCSV(summaryPath); err != nil {
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"run_id":  summary.RunID,
		"rows":    len(summary.Rows),
		"summary": summaryPath,
	}).Info("Release run complete")

	return summary, nil
}

func (d *Driver) runIteration(summary *Summary, baseline *dataset.Table, desc registry.Descriptor,
	epsilon float64, seed int64, rng *rand.Rand, delta float64) error {

	noised, err := d.executor.Inject(baseline, desc, epsilon, rng)
	if err != nil {
		return err
	}

	result := evaluate.Evaluate(baseline, noised, desc)

	outDir := d.cfg.EpsilonDir(d.executor.Name(), epsilon)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeRelease, "OUTPUT_DIR_FAILED",
			"failed to create epsilon output directory")
	}
	outPath := filepath.Join(outDir, desc.Filename)
	if err := noised.WriteCSV(outPath); err != nil {
		return err
	}

	d.logger.WithFields(logrus.Fields{
		"query":   desc.ID,
		"epsilon": config.EpsilonLabel(epsilon),
		"seed":    seed,
		"output":  outPath,
	}).Debug("Persisted noised table")

	summary.Append(Row{
		RunID:        summary.RunID,
		QueryID:      desc.ID,
		QueryFile:    desc.Filename,
		Mechanism:    d.executor.Name(),
		Variant:      d.cfg.Variant,
		EpsilonLabel: config.EpsilonLabel(epsilon),
		Delta:        delta,
		Seed:         seed,
		NumRows:      baseline.NumRows(),
		Result:       result,
	})
	return nil
}
