package evaluate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/telemetrydp/dprelease/internal/dataset"
	"github.com/telemetrydp/dprelease/internal/registry"
)

// Score field names, shared with the run summary. The summary carries the
// union of these; each result populates only its own family's fields.
const (
	ScoreIOUTopSet      = "iou_top_set"
	ScoreLInfZScore     = "l_inf_zscore"
	ScoreTopSetSizeTrue = "top_set_size_true"
	ScoreTopSetSizeDP   = "top_set_size_dp"
	ScoreTVD            = "tvd"
	ScoreMAEPct         = "mae_pct"
	ScoreKendallTau     = "kendall_tau"
	ScoreTopKAcc        = "top_k_acc"
	ScoreTopK           = "top_k"
	ScoreTop1Accuracy   = "top1_accuracy"
	ScoreMeanKLDiv      = "mean_kl_div"
	ScoreMaxKLDiv       = "max_kl_div"
)

// ScoreFields lists every score field in summary column order.
var ScoreFields = []string{
	ScoreIOUTopSet,
	ScoreLInfZScore,
	ScoreTopSetSizeTrue,
	ScoreTopSetSizeDP,
	ScoreTVD,
	ScoreMAEPct,
	ScoreKendallTau,
	ScoreTopKAcc,
	ScoreTopK,
	ScoreTop1Accuracy,
	ScoreMeanKLDiv,
	ScoreMaxKLDiv,
}

// Result holds the scores of one baseline/noised comparison. A NaN score is
// the "not applicable" sentinel, reported when a selector column is absent.
// Note is set instead of an error so one bad query never aborts a run.
type Result struct {
	MetricType registry.MetricType
	Scores     map[string]float64
	Note       string
}

type evaluator func(baseline, noised *dataset.Table, desc registry.Descriptor) Result

var evaluators = map[registry.MetricType]evaluator{
	registry.MetricAbnormality:       evaluateAbnormality,
	registry.MetricDistribution:      evaluateDistribution,
	registry.MetricRanking:           evaluateRanking,
	registry.MetricWinner:            evaluateWinner,
	registry.MetricMultiDistribution: evaluateMultiDistribution,
}

// Evaluate scores how much of a query's analytical conclusion survived
// noising, dispatching on the descriptor's metric type. It is deterministic:
// identical inputs always produce identical scores.
func Evaluate(baseline, noised *dataset.Table, desc registry.Descriptor) Result {
	fn, ok := evaluators[desc.Metric.Type]
	if !ok {
		return Result{
			MetricType: desc.Metric.Type,
			Note:       "unrecognized metric type",
		}
	}
	return fn(baseline, noised, desc)
}

// evaluateAbnormality compares which groups each table flags as abnormal.
// A group is flagged when its z-score is positive; the score is the
// intersection-over-union of the two flagged sets plus the worst-case
// z-score shift.
func evaluateAbnormality(baseline, noised *dataset.Table, desc registry.Descriptor) Result {
	col := desc.Metric.ZScoreColumn
	trueVals, err1 := baseline.FloatColumn(col)
	noisyVals, err2 := noised.FloatColumn(col)
	if err1 != nil || err2 != nil {
		return notApplicable(desc.Metric.Type, ScoreIOUTopSet, ScoreLInfZScore)
	}

	zTrue := zscores(trueVals)
	zNoisy := zscores(noisyVals)

	topTrue := flaggedSet(zTrue)
	topNoisy := flaggedSet(zNoisy)

	intersection, union := 0, 0
	for idx := range topTrue {
		if topNoisy[idx] {
			intersection++
		}
	}
	union = len(topTrue) + len(topNoisy) - intersection

	iou := 1.0 // both empty means the story is trivially preserved
	if union > 0 {
		iou = float64(intersection) / float64(union)
	}

	lInf := math.NaN()
	if len(zTrue) == len(zNoisy) {
		lInf = 0
		for i := range zTrue {
			if d := math.Abs(zTrue[i] - zNoisy[i]); d > lInf {
				lInf = d
			}
		}
	}

	return Result{
		MetricType: desc.Metric.Type,
		Scores: map[string]float64{
			ScoreIOUTopSet:      iou,
			ScoreLInfZScore:     lInf,
			ScoreTopSetSizeTrue: float64(len(topTrue)),
			ScoreTopSetSizeDP:   float64(len(topNoisy)),
		},
	}
}

// evaluateDistribution reports total variation distance between the
// normalized percentage columns, plus the mean absolute difference in raw
// percentage points.
func evaluateDistribution(baseline, noised *dataset.Table, desc registry.Descriptor) Result {
	col := desc.Metric.PercentColumn
	trueRaw, err1 := baseline.FloatColumn(col)
	noisyRaw, err2 := noised.FloatColumn(col)
	if err1 != nil || err2 != nil {
		return notApplicable(desc.Metric.Type, ScoreTVD, ScoreMAEPct)
	}

	pTrue := normalize(trueRaw)
	pNoisy := normalize(noisyRaw)

	n := minInt(len(pTrue), len(pNoisy))
	var tvd, mae float64
	for i := 0; i < n; i++ {
		tvd += math.Abs(pTrue[i] - pNoisy[i])
		mae += math.Abs(trueRaw[i] - noisyRaw[i])
	}
	tvd *= 0.5
	if n > 0 {
		mae /= float64(n)
	}

	return Result{
		MetricType: desc.Metric.Type,
		Scores: map[string]float64{
			ScoreTVD:    tvd,
			ScoreMAEPct: mae,
		},
	}
}

// evaluateRanking reports Kendall's tau between the ranked columns and the
// overlap fraction of the two top-k sets, k = min(3, rows).
func evaluateRanking(baseline, noised *dataset.Table, desc registry.Descriptor) Result {
	col := desc.Metric.RankColumn
	trueVals, err1 := baseline.FloatColumn(col)
	noisyVals, err2 := noised.FloatColumn(col)
	if err1 != nil || err2 != nil {
		return notApplicable(desc.Metric.Type, ScoreKendallTau, ScoreTopKAcc, ScoreTopK)
	}

	n := minInt(len(trueVals), len(noisyVals))
	trueVals = trueVals[:n]
	noisyVals = noisyVals[:n]

	tau := math.NaN()
	if n >= 2 {
		tau = stat.Kendall(trueVals, noisyVals, nil)
	}

	k := minInt(3, n)
	topKAcc := 1.0
	if k > 0 {
		topTrue := topIndices(trueVals, k)
		topNoisy := topIndices(noisyVals, k)
		overlap := 0
		for idx := range topTrue {
			if topNoisy[idx] {
				overlap++
			}
		}
		topKAcc = float64(overlap) / float64(k)
	}

	return Result{
		MetricType: desc.Metric.Type,
		Scores: map[string]float64{
			ScoreKendallTau: tau,
			ScoreTopKAcc:    topKAcc,
			ScoreTopK:       float64(k),
		},
	}
}

// evaluateWinner reports the fraction of rows whose categorical winner is
// unchanged between the two tables.
func evaluateWinner(baseline, noised *dataset.Table, desc registry.Descriptor) Result {
	col := desc.Metric.WinnerColumn
	trueWinners, ok1 := baseline.StringColumn(col)
	noisyWinners, ok2 := noised.StringColumn(col)
	if !ok1 || !ok2 {
		return notApplicable(desc.Metric.Type, ScoreTop1Accuracy)
	}

	n := minInt(len(trueWinners), len(noisyWinners))
	accuracy := 1.0 // no rows means nothing was lost
	if n > 0 {
		matches := 0
		for i := 0; i < n; i++ {
			if trueWinners[i] == noisyWinners[i] {
				matches++
			}
		}
		accuracy = float64(matches) / float64(n)
	}

	return Result{
		MetricType: desc.Metric.Type,
		Scores: map[string]float64{
			ScoreTop1Accuracy: accuracy,
		},
	}
}

// evaluateMultiDistribution treats each row's distribution columns as a
// probability vector and reports the mean and maximum KL divergence of the
// noised rows from the baseline rows.
func evaluateMultiDistribution(baseline, noised *dataset.Table, desc registry.Descriptor) Result {
	cols := desc.Metric.DistColumns

	trueCols := make([][]float64, len(cols))
	noisyCols := make([][]float64, len(cols))
	for i, col := range cols {
		tv, err1 := baseline.FloatColumn(col)
		nv, err2 := noised.FloatColumn(col)
		if err1 != nil || err2 != nil {
			return notApplicable(desc.Metric.Type, ScoreMeanKLDiv, ScoreMaxKLDiv)
		}
		trueCols[i] = tv
		noisyCols[i] = nv
	}

	rows := minInt(baseline.NumRows(), noised.NumRows())
	meanKL, maxKL := math.NaN(), math.NaN()
	if rows > 0 {
		var sum float64
		maxKL = math.Inf(-1)
		for row := 0; row < rows; row++ {
			p := rowDistribution(trueCols, row)
			q := rowDistribution(noisyCols, row)
			kl := stat.KullbackLeibler(p, q)
			sum += kl
			if kl > maxKL {
				maxKL = kl
			}
		}
		meanKL = sum / float64(rows)
	}

	return Result{
		MetricType: desc.Metric.Type,
		Scores: map[string]float64{
			ScoreMeanKLDiv: meanKL,
			ScoreMaxKLDiv:  maxKL,
		},
	}
}

// Helpers

// distributionFloor keeps row distributions strictly positive so that
// normalization never divides by zero and KL never takes log of zero.
const distributionFloor = 1e-10

func notApplicable(metricType registry.MetricType, fields ...string) Result {
	scores := make(map[string]float64, len(fields))
	for _, f := range fields {
		scores[f] = math.NaN()
	}
	return Result{
		MetricType: metricType,
		Scores:     scores,
		Note:       "selector column missing",
	}
}

// zscores returns the per-row z-scores of values against the population
// standard deviation, or all zeros for a constant column.
func zscores(values []float64) []float64 {
	z := make([]float64, len(values))
	if len(values) == 0 {
		return z
	}

	mean := stat.Mean(values, nil)
	std := stat.PopStdDev(values, nil)
	if std == 0 {
		return z
	}
	for i, v := range values {
		z[i] = (v - mean) / std
	}
	return z
}

func flaggedSet(z []float64) map[int]bool {
	set := make(map[int]bool)
	for i, v := range z {
		if v > 0 {
			set[i] = true
		}
	}
	return set
}

func normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	if sum <= 0 {
		copy(out, values)
		return out
	}
	for i, v := range values {
		out[i] = v / sum
	}
	return out
}

// topIndices returns the set of row indices of the k largest values.
func topIndices(values []float64, k int) map[int]bool {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})

	top := make(map[int]bool, k)
	for i := 0; i < k && i < len(order); i++ {
		top[order[i]] = true
	}
	return top
}

func rowDistribution(columns [][]float64, row int) []float64 {
	p := make([]float64, len(columns))
	var sum float64
	for i, col := range columns {
		v := col[row]
		if v < distributionFloor {
			v = distributionFloor
		}
		p[i] = v
		sum += v
	}
	for i := range p {
		p[i] /= sum
	}
	return p
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
