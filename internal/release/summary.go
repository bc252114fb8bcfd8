package release

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/telemetrydp/dprelease/internal/evaluate"
	"github.com/telemetrydp/dprelease/pkg/errors"
)

// deltaNotApplicable marks the delta column for mechanisms that do not use
// delta.
const deltaNotApplicable = "NA"

// Row is one (query, epsilon) iteration of a mechanism run.
type Row struct {
	RunID        string
	QueryID      int
	QueryFile    string
	Mechanism    string
	Variant      string
	EpsilonLabel string
	Delta        float64 // NaN when the mechanism does not use delta
	Seed         int64
	NumRows      int
	Result       evaluate.Result
}

// Summary accumulates the rows of one mechanism run and persists them as a
// single table. The score columns are the union across metric types; fields
// a row's metric does not define are left empty, and a NaN score is written
// as the not-applicable sentinel.
type Summary struct {
	RunID     string
	Mechanism string
	Rows      []Row
}

// Append adds one iteration's row.
func (s *Summary) Append(row Row) {
	s.Rows = append(s.Rows, row)
}

// Columns returns the summary header.
func Columns() []string {
	cols := []string{
		"run_id", "query_num", "query_file", "mechanism", "database",
		"epsilon", "delta", "seed", "n_rows", "metric_type",
	}
	cols = append(cols, evaluate.ScoreFields...)
	return append(cols, "note")
}

// WriteCSV persists the summary table.
func (s *Summary) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeRelease, "SUMMARY_WRITE_FAILED",
			"failed to create summary file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns()); err != nil {
		return errors.WrapError(err, errors.ErrorTypeRelease, "SUMMARY_WRITE_FAILED",
			"failed to write summary header")
	}
	for _, row := range s.Rows {
		if err := w.Write(row.record()); err != nil {
			return errors.WrapError(err, errors.ErrorTypeRelease, "SUMMARY_WRITE_FAILED",
				"failed to write summary row")
		}
	}
	w.Flush()
	return w.Error()
}

func (r Row) record() []string {
	delta := deltaNotApplicable
	if !math.IsNaN(r.Delta) {
		delta = strconv.FormatFloat(r.Delta, 'g', -1, 64)
	}

	rec := []string{
		r.RunID,
		strconv.Itoa(r.QueryID),
		r.QueryFile,
		r.Mechanism,
		r.Variant,
		r.EpsilonLabel,
		delta,
		strconv.FormatInt(r.Seed, 10),
		strconv.Itoa(r.NumRows),
		string(r.Result.MetricType),
	}
	for _, field := range evaluate.ScoreFields {
		score, ok := r.Result.Scores[field]
		switch {
		case !ok:
			rec = append(rec, "")
		case math.IsNaN(score):
			rec = append(rec, deltaNotApplicable)
		default:
			rec = append(rec, strconv.FormatFloat(score, 'g', -1, 64))
		}
	}
	return append(rec, r.Result.Note)
}
