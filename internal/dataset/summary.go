package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
)

// Summary is a markdown-friendly description of a table.
type Summary struct {
	Name string
	Rows int
	Cols []ColumnSummary
}

// ColumnSummary captures missingness and simple statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|identifier
	NonNull int
	Missing int
	// Numeric stats
	Min, Max, Mean, Std float64
	// Categorical value counts
	TopValues []ColumnCount
}

// Summarize describes every column of t.
func Summarize(name string, t *Table) Summary {
	s := Summary{Name: name, Rows: t.Len()}
	for _, col := range t.Columns() {
		vals, _ := t.Column(col)
		cs := ColumnSummary{Name: col, Kind: columnKind(col)}
		var xs []float64
		cats := map[string]int{}
		for _, v := range vals {
			if cohort.IsMissing(v) {
				cs.Missing++
				continue
			}
			cs.NonNull++
			switch cs.Kind {
			case "numeric":
				x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					continue
				}
				xs = append(xs, x)
			case "categorical":
				cats[categoryLabel(col, v)]++
			}
		}
		if len(xs) > 0 {
			cs.Min, cs.Max = floats.Min(xs), floats.Max(xs)
			cs.Mean = stat.Mean(xs, nil)
			if len(xs) > 1 {
				_, cs.Std = stat.MeanStdDev(xs, nil)
			}
		}
		for k, c := range cats {
			cs.TopValues = append(cs.TopValues, ColumnCount{Column: k, Count: c})
		}
		sort.Slice(cs.TopValues, func(i, j int) bool {
			if cs.TopValues[i].Count == cs.TopValues[j].Count {
				return cs.TopValues[i].Column < cs.TopValues[j].Column
			}
			return cs.TopValues[i].Count > cs.TopValues[j].Count
		})
		s.Cols = append(s.Cols, cs)
	}
	return s
}

func columnKind(col string) string {
	switch col {
	case cohort.ColAge:
		return "numeric"
	case cohort.ColPatientID:
		return "identifier"
	}
	return "categorical"
}

func categoryLabel(col, v string) string {
	switch col {
	case cohort.ColGender:
		if g, err := cohort.ParseGender(v); err == nil {
			return g.String()
		}
	case cohort.ColDiagnosis:
		if d, err := cohort.ParseDiagnosis(v); err == nil {
			return d.String()
		}
	}
	return strings.TrimSpace(v)
}

// Markdown renders a compact report.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(s.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %d = %.1f%%)", c.Name, c.Kind, c.NonNull, c.Missing, missPct))
		switch c.Kind {
		case "numeric":
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", kv.Column, kv.Count))
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
