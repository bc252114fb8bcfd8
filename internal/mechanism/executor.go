package mechanism

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/telemetrydp/dprelease/internal/dataset"
	"github.com/telemetrydp/dprelease/internal/registry"
	"github.com/telemetrydp/dprelease/pkg/errors"
)

// Executor applies one noise family to baseline tables. Gaussian and Laplace
// share the whole pipeline (calibrate, draw per cell, post-process) and
// differ only in the Noiser they are built with.
type Executor struct {
	noiser Noiser
	logger *logrus.Logger
}

// NewExecutor creates an executor around a noiser.
func NewExecutor(noiser Noiser, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{noiser: noiser, logger: logger}
}

// Name returns the underlying mechanism name.
func (e *Executor) Name() string { return e.noiser.Name() }

// Inject returns a noised copy of the baseline table. The baseline is never
// mutated. At ε = ∞, or for a query with no noise-bearing columns, the copy
// is returned unchanged; this is the zero-noise sanity baseline. At ε = 0 the
// calibrated scale is infinite and the injection is refused with
// ErrUnreleasable rather than producing any table.
//
// The caller owns the generator's seed: identical (table, descriptor,
// epsilon, seed) inputs produce identical output.
func (e *Executor) Inject(baseline *dataset.Table, desc registry.Descriptor, epsilon float64, rng *rand.Rand) (*dataset.Table, error) {
	if err := e.noiser.ValidateParameters(epsilon); err != nil {
		return nil, err
	}

	noised := baseline.Clone()
	if len(desc.NoiseColumns) == 0 || math.IsInf(epsilon, 1) {
		return noised, nil
	}

	scale := e.noiser.Scale(desc, epsilon)
	if math.IsInf(scale, 1) {
		return nil, errors.WrapError(errors.ErrUnreleasable, errors.ErrorTypePrivacy, "UNRELEASABLE",
			fmt.Sprintf("query %d at epsilon 0 calibrates to infinite scale", desc.ID))
	}

	e.logger.WithFields(logrus.Fields{
		"mechanism": e.noiser.Name(),
		"query":     desc.ID,
		"epsilon":   epsilon,
		"scale":     scale,
	}).Debug("Calibrated noise scale")

	for _, col := range desc.NoiseColumns {
		if !noised.HasColumn(col) {
			// A declared noise-bearing column the table does not carry would
			// be released with zero added noise if skipped, breaking the
			// privacy guarantee for that column. Refuse instead.
			return nil, errors.WrapError(errors.ErrMissingNoiseColumn, errors.ErrorTypePrivacy, "MISSING_NOISE_COLUMN",
				fmt.Sprintf("query %d declares noise column %q absent from table %s", desc.ID, col, baseline.Name))
		}

		values, err := noised.FloatColumn(col)
		if err != nil {
			return nil, err
		}
		for i := range values {
			values[i] += e.noiser.Sample(rng, scale)
		}
		if err := noised.SetFloatColumn(col, values); err != nil {
			return nil, err
		}
	}

	if err := postProcess(noised, desc); err != nil {
		return nil, err
	}
	return noised, nil
}

// postProcess restores the declared output invariants on an already-noised
// table. This is deterministic post-processing on privatized output and
// consumes no additional privacy budget. Order matters: clamping first, then
// renormalization of percentage and distribution columns.
func postProcess(t *dataset.Table, desc registry.Descriptor) error {
	// Counts, durations and percentages cannot be negative.
	for _, col := range desc.NoiseColumns {
		values, err := t.FloatColumn(col)
		if err != nil {
			return err
		}
		for i, v := range values {
			if v < 0 {
				values[i] = 0
			}
		}
		if err := t.SetFloatColumn(col, values); err != nil {
			return err
		}
	}

	// A primary percentage column must still sum to 100 across rows.
	if col := desc.NormalizePercent; col != "" && t.HasColumn(col) {
		values, err := t.FloatColumn(col)
		if err != nil {
			return err
		}
		var total float64
		for _, v := range values {
			total += v
		}
		if total > 0 {
			for i := range values {
				values[i] = values[i] / total * 100.0
			}
			if err := t.SetFloatColumn(col, values); err != nil {
				return err
			}
		}
	}

	// Row-wise distribution columns must sum to 100 within each row.
	if len(desc.NormalizeRows) > 0 {
		columns := make([][]float64, len(desc.NormalizeRows))
		for i, col := range desc.NormalizeRows {
			values, err := t.FloatColumn(col)
			if err != nil {
				return err
			}
			columns[i] = values
		}
		for row := 0; row < t.NumRows(); row++ {
			var rowSum float64
			for _, col := range columns {
				rowSum += col[row]
			}
			if rowSum > 0 {
				for _, col := range columns {
					col[row] = col[row] / rowSum * 100.0
				}
			}
		}
		for i, col := range desc.NormalizeRows {
			if err := t.SetFloatColumn(col, columns[i]); err != nil {
				return err
			}
		}
	}

	return nil
}
