// Package dataset holds the record table and the stages that build it:
// loading, cleaning and age bucketing.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrMissingValue is returned by Patients when a cell is missing.
	ErrMissingValue = errors.New("missing value")
)

// Table is an immutable record table of string cells. Operations return a
// new Table and preserve row order.
//
// gota cannot represent a frame with zero rows, so an empty Table carries its
// column names only.
type Table struct {
	names []string
	df    dataframe.DataFrame
	rows  int
}

// New builds a table from a header and rows. Short rows are padded with
// empty cells; long rows are truncated.
func New(names []string, rows [][]string) (*Table, error) {
	if len(names) == 0 {
		return nil, errors.New("table has no columns")
	}
	cols := append([]string(nil), names...)
	if len(rows) == 0 {
		return &Table{names: cols}, nil
	}
	records := make([][]string, 0, len(rows)+1)
	records = append(records, cols)
	for _, r := range rows {
		rec := make([]string, len(cols))
		copy(rec, r)
		records = append(records, rec)
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load records: %w", df.Err)
	}
	return &Table{names: cols, df: df, rows: df.Nrow()}, nil
}

func fromFrame(names []string, df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	return &Table{names: names, df: df, rows: df.Nrow()}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.names...) }

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool { return t.index(name) >= 0 }

func (t *Table) index(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Column returns the raw cells of the named column.
func (t *Table) Column(name string) ([]string, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	if t.rows == 0 {
		return []string{}, nil
	}
	return t.df.Col(name).Records(), nil
}

// Rows returns the cells row by row, without the header.
func (t *Table) Rows() [][]string {
	if t.rows == 0 {
		return nil
	}
	recs := t.df.Records()
	return recs[1:]
}

// Select projects the table onto the given columns, in that order.
func (t *Table) Select(names ...string) (*Table, error) {
	for _, n := range names {
		if !t.HasColumn(n) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, n)
		}
	}
	if t.rows == 0 {
		return &Table{names: append([]string(nil), names...)}, nil
	}
	return fromFrame(append([]string(nil), names...), t.df.Select(names))
}

// Subset keeps the rows at the given indexes, in the given order.
func (t *Table) Subset(idx []int) (*Table, error) {
	if len(idx) == 0 {
		return &Table{names: t.Columns()}, nil
	}
	if len(idx) == t.rows && isIdentity(idx) {
		return t, nil
	}
	return fromFrame(t.Columns(), t.df.Subset(idx))
}

func isIdentity(idx []int) bool {
	for i, v := range idx {
		if i != v {
			return false
		}
	}
	return true
}

// WithColumn returns a table with the named column added or replaced.
func (t *Table) WithColumn(name string, values []string) (*Table, error) {
	if len(values) != t.rows {
		return nil, fmt.Errorf("column %s: got %d values for %d rows", name, len(values), t.rows)
	}
	names := t.Columns()
	if !t.HasColumn(name) {
		names = append(names, name)
	}
	if t.rows == 0 {
		return &Table{names: names}, nil
	}
	return fromFrame(names, t.df.Mutate(series.New(values, series.String, name)))
}

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// MissingCounts returns the number of missing cells per column, in column order.
func (t *Table) MissingCounts() []ColumnCount {
	out := make([]ColumnCount, len(t.names))
	for i, n := range t.names {
		out[i].Column = n
		if t.rows == 0 {
			continue
		}
		for _, v := range t.df.Col(n).Records() {
			if cohort.IsMissing(v) {
				out[i].Count++
			}
		}
	}
	return out
}

// TotalMissing sums counts.
func TotalMissing(counts []ColumnCount) int {
	var n int
	for _, c := range counts {
		n += c.Count
	}
	return n
}

// WriteCSV writes a header row followed by every row; no index column.
func (t *Table) WriteCSV(w io.Writer) error {
	if t.rows > 0 {
		return t.df.WriteCSV(w, dataframe.WriteHeader(true))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.names); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Patients returns the typed view of every row. AgeGroup is filled when the
// table has been bucketized.
func (t *Table) Patients() ([]cohort.Patient, error) {
	for _, c := range cohort.RequiredColumns {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	iID, iAge, iGender, iDiag := t.index(cohort.ColPatientID), t.index(cohort.ColAge), t.index(cohort.ColGender), t.index(cohort.ColDiagnosis)
	iGroup := t.index(cohort.ColAgeGroup)
	rows := t.Rows()
	out := make([]cohort.Patient, 0, len(rows))
	for n, r := range rows {
		for _, i := range []int{iID, iAge, iGender, iDiag} {
			if cohort.IsMissing(r[i]) {
				return nil, fmt.Errorf("row %d: %w in %s", n+1, ErrMissingValue, t.names[i])
			}
		}
		age, err := cohort.ParseAge(r[iAge])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		g, err := cohort.ParseGender(r[iGender])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		d, err := cohort.ParseDiagnosis(r[iDiag])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		p := cohort.Patient{ID: r[iID], Age: age, Gender: g, Diagnosis: d}
		if iGroup >= 0 && !cohort.IsMissing(r[iGroup]) {
			p.AgeGroup = r[iGroup]
		}
		out = append(out, p)
	}
	return out, nil
}
