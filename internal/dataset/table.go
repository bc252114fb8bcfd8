package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/telemetrydp/dprelease/pkg/errors"
)

// Table is a named rectangular dataset with a header row of named columns.
// It is the in-memory form of one aggregate query result: one row per
// analytical group, cells stored as their CSV text. Numeric columns are
// parsed on demand so that untouched columns round-trip byte for byte.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given name and column set.
func New(name string, columns []string) *Table {
	return &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
	}
}

// ReadCSV loads a table from a CSV file with a header row.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapError(err, errors.ErrorTypeDataset, "BASELINE_NOT_FOUND",
				fmt.Sprintf("baseline table not found: %s", path))
		}
		return nil, errors.WrapError(err, errors.ErrorTypeDataset, "READ_FAILED",
			fmt.Sprintf("failed to open table: %s", path))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeDataset, "PARSE_FAILED",
			fmt.Sprintf("failed to parse CSV: %s", path))
	}
	if len(records) == 0 {
		return nil, errors.NewDatasetError("EMPTY_FILE",
			fmt.Sprintf("CSV file has no header row: %s", path))
	}

	t := &Table{
		Name:    path,
		Columns: records[0],
		Rows:    records[1:],
	}
	return t, nil
}

// WriteCSV persists the table to path, creating parent directories as needed.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeDataset, "WRITE_FAILED",
			fmt.Sprintf("failed to create output file: %s", path))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return errors.WrapError(err, errors.ErrorTypeDataset, "WRITE_FAILED", "failed to write CSV header")
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return errors.WrapError(err, errors.ErrorTypeDataset, "WRITE_FAILED", "failed to write CSV row")
		}
	}
	w.Flush()
	return w.Error()
}

// Clone returns a deep copy. Noise injection always operates on a clone so
// the baseline table is never mutated.
func (t *Table) Clone() *Table {
	clone := &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		clone.Rows[i] = append([]string(nil), row...)
	}
	return clone
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, col := range t.Columns {
		if col == name {
			return i, true
		}
	}
	return 0, false
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// FloatColumn parses a column as float64 values.
func (t *Table) FloatColumn(name string) ([]float64, error) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return nil, errors.WrapError(errors.ErrColumnNotFound, errors.ErrorTypeDataset, "COLUMN_NOT_FOUND",
			fmt.Sprintf("column %q not found in table %s", name, t.Name))
	}

	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if idx >= len(row) {
			return nil, errors.NewDatasetError("RAGGED_ROW",
				fmt.Sprintf("row %d of table %s is shorter than the header", i, t.Name))
		}
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, errors.WrapError(errors.ErrColumnNotNumeric, errors.ErrorTypeDataset, "NOT_NUMERIC",
				fmt.Sprintf("column %q row %d: %q is not numeric", name, i, row[idx]))
		}
		values[i] = v
	}
	return values, nil
}

// SetFloatColumn overwrites a column with formatted float values.
func (t *Table) SetFloatColumn(name string, values []float64) error {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return errors.WrapError(errors.ErrColumnNotFound, errors.ErrorTypeDataset, "COLUMN_NOT_FOUND",
			fmt.Sprintf("column %q not found in table %s", name, t.Name))
	}
	if len(values) != len(t.Rows) {
		return errors.WrapError(errors.ErrColumnLength, errors.ErrorTypeDataset, "LENGTH_MISMATCH",
			fmt.Sprintf("column %q: %d values for %d rows", name, len(values), len(t.Rows)))
	}
	for i := range t.Rows {
		t.Rows[i][idx] = strconv.FormatFloat(values[i], 'g', -1, 64)
	}
	return nil
}

// StringColumn returns the raw cell values of a column.
func (t *Table) StringColumn(name string) ([]string, bool) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values, true
}
