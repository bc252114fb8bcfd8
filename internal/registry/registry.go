package registry

import (
	"fmt"
	"math"
	"sort"

	"github.com/telemetrydp/dprelease/pkg/errors"
)

// MetricType tags the utility metric family that fits a query's analytical
// story. The letter tags are the values written to the run summary.
type MetricType string

const (
	// MetricAbnormality scores "which groups are abnormal?" queries with
	// z-score top-set IOU plus the worst-case z-score shift.
	MetricAbnormality MetricType = "A"
	// MetricDistribution scores percentage/histogram outputs with total
	// variation distance.
	MetricDistribution MetricType = "B"
	// MetricRanking scores ranked outputs with Kendall's tau and top-k overlap.
	MetricRanking MetricType = "C"
	// MetricWinner scores one-winner-per-group outputs with top-1 accuracy.
	MetricWinner MetricType = "D"
	// MetricMultiDistribution scores per-row category distributions with
	// KL divergence.
	MetricMultiDistribution MetricType = "E"
)

// MetricSpec selects the column(s) a metric family reads. Exactly one
// selector is populated; use the constructor matching the metric type so a
// descriptor can never carry a mismatched selector.
type MetricSpec struct {
	Type MetricType

	ZScoreColumn  string
	PercentColumn string
	RankColumn    string
	WinnerColumn  string
	DistColumns   []string
}

// AbnormalityMetric selects the column whose per-group z-score drives the
// abnormality story.
func AbnormalityMetric(column string) MetricSpec {
	return MetricSpec{Type: MetricAbnormality, ZScoreColumn: column}
}

// DistributionMetric selects the percentage column compared under TVD.
func DistributionMetric(column string) MetricSpec {
	return MetricSpec{Type: MetricDistribution, PercentColumn: column}
}

// RankingMetric selects the column whose descending order is compared.
func RankingMetric(column string) MetricSpec {
	return MetricSpec{Type: MetricRanking, RankColumn: column}
}

// WinnerMetric selects the categorical winner column.
func WinnerMetric(column string) MetricSpec {
	return MetricSpec{Type: MetricWinner, WinnerColumn: column}
}

// MultiDistributionMetric selects the per-row distribution columns compared
// under KL divergence.
func MultiDistributionMetric(columns ...string) MetricSpec {
	return MetricSpec{Type: MetricMultiDistribution, DistColumns: columns}
}

// Descriptor is the static declaration for one query: which output file it
// lives in, which columns receive noise and with what worst-case per-entity
// sensitivity, which output invariants post-processing must restore, and how
// utility loss is scored. Sensitivities are declared by domain reasoning
// about the upstream aggregation, never inferred from data.
type Descriptor struct {
	ID       int
	Filename string

	// NoiseColumns lists the numeric output columns that receive noise,
	// in declaration order.
	NoiseColumns []string

	// Sensitivity maps each noise-bearing column to the maximum change a
	// single entity's presence or absence can cause in that column.
	Sensitivity map[string]float64

	// GroupColumns name the grouping key(s). Informational only.
	GroupColumns []string

	// NormalizePercent, when set, names a column whose values must sum to
	// 100 across rows after noising.
	NormalizePercent string

	// NormalizeRows, when set, names columns forming a per-row distribution
	// that must sum to 100 within each row after noising.
	NormalizeRows []string

	Metric MetricSpec
}

// L1Sensitivity is the sum of the per-column sensitivities. It calibrates
// the Laplace mechanism.
func (d Descriptor) L1Sensitivity() float64 {
	var sum float64
	for _, s := range d.Sensitivity {
		sum += s
	}
	return sum
}

// L2Sensitivity is the Euclidean norm of the per-column sensitivity vector.
// It calibrates the Gaussian mechanism.
func (d Descriptor) L2Sensitivity() float64 {
	var sumSq float64
	for _, s := range d.Sensitivity {
		sumSq += s * s
	}
	return math.Sqrt(sumSq)
}

// Validate checks the internal consistency of a descriptor.
func (d Descriptor) Validate() error {
	for _, col := range d.NoiseColumns {
		s, ok := d.Sensitivity[col]
		if !ok {
			return errors.NewValidationError("MISSING_SENSITIVITY",
				fmt.Sprintf("query %d: noise column %q has no declared sensitivity", d.ID, col))
		}
		if s < 0 {
			return errors.WrapError(errors.ErrInvalidSensitivity, errors.ErrorTypeValidation, "NEGATIVE_SENSITIVITY",
				fmt.Sprintf("query %d: column %q declares sensitivity %g", d.ID, col, s))
		}
	}
	switch d.Metric.Type {
	case MetricAbnormality:
		if d.Metric.ZScoreColumn == "" {
			return selectorError(d, "z-score column")
		}
	case MetricDistribution:
		if d.Metric.PercentColumn == "" {
			return selectorError(d, "percentage column")
		}
	case MetricRanking:
		if d.Metric.RankColumn == "" {
			return selectorError(d, "rank column")
		}
	case MetricWinner:
		if d.Metric.WinnerColumn == "" {
			return selectorError(d, "winner column")
		}
	case MetricMultiDistribution:
		if len(d.Metric.DistColumns) == 0 {
			return selectorError(d, "distribution columns")
		}
	default:
		return errors.WrapError(errors.ErrUnknownMetricType, errors.ErrorTypeValidation, "UNKNOWN_METRIC",
			fmt.Sprintf("query %d: metric type %q", d.ID, d.Metric.Type))
	}
	return nil
}

func selectorError(d Descriptor, want string) error {
	return errors.WrapError(errors.ErrInvalidSelector, errors.ErrorTypeValidation, "MISSING_SELECTOR",
		fmt.Sprintf("query %d: metric type %s requires a %s", d.ID, d.Metric.Type, want))
}

// Registry is an immutable lookup from query identifier to descriptor.
type Registry struct {
	queries map[int]Descriptor
	order   []int
}

// New builds a registry from descriptors, validating each one.
func New(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{queries: make(map[int]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.queries[d.ID]; dup {
			return nil, errors.NewValidationError("DUPLICATE_QUERY",
				fmt.Sprintf("query %d declared twice", d.ID))
		}
		r.queries[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	sort.Ints(r.order)
	return r, nil
}

// Get returns the descriptor for a query identifier.
func (r *Registry) Get(id int) (Descriptor, error) {
	d, ok := r.queries[id]
	if !ok {
		return Descriptor{}, errors.WrapError(errors.ErrUnknownQuery, errors.ErrorTypeValidation, "UNKNOWN_QUERY",
			fmt.Sprintf("query %d is not registered", id))
	}
	return d, nil
}

// IDs returns all registered query identifiers in ascending order.
func (r *Registry) IDs() []int {
	return append([]int(nil), r.order...)
}

// Len returns the number of registered queries.
func (r *Registry) Len() int {
	return len(r.queries)
}
