package dataset

import "github.com/KaramelBytes/cohortscope/internal/cohort"

// Crosstab holds cross-tabulated counts of two categorical variables. Only
// categories that occur at least once are kept, in the given order.
type Crosstab struct {
	Rows   []string    `json:"rows"`
	Cols   []string    `json:"cols"`
	Counts [][]float64 `json:"counts"`
}

// NewCrosstab counts (rowVals[i], colVals[i]) pairs. Values missing from the
// order slices are ignored.
func NewCrosstab(rowVals, colVals, rowOrder, colOrder []string) Crosstab {
	type key struct{ r, c string }
	counts := make(map[key]float64)
	rowSeen := make(map[string]bool)
	colSeen := make(map[string]bool)
	for i := range rowVals {
		if i >= len(colVals) {
			break
		}
		counts[key{rowVals[i], colVals[i]}]++
		rowSeen[rowVals[i]] = true
		colSeen[colVals[i]] = true
	}
	var ct Crosstab
	for _, r := range rowOrder {
		if rowSeen[r] {
			ct.Rows = append(ct.Rows, r)
		}
	}
	for _, c := range colOrder {
		if colSeen[c] {
			ct.Cols = append(ct.Cols, c)
		}
	}
	ct.Counts = make([][]float64, len(ct.Rows))
	for i, r := range ct.Rows {
		ct.Counts[i] = make([]float64, len(ct.Cols))
		for j, c := range ct.Cols {
			ct.Counts[i][j] = counts[key{r, c}]
		}
	}
	return ct
}

// Count returns the cell for (row, col), zero when either is absent.
func (c Crosstab) Count(row, col string) float64 {
	for i, r := range c.Rows {
		if r != row {
			continue
		}
		for j, cc := range c.Cols {
			if cc == col {
				return c.Counts[i][j]
			}
		}
	}
	return 0
}

// Total sums every cell.
func (c Crosstab) Total() float64 {
	var t float64
	for _, row := range c.Counts {
		for _, v := range row {
			t += v
		}
	}
	return t
}

// GenderByDiagnosis tabulates Gender (rows Male, Female) against Diagnosis
// (columns "0", "1").
func GenderByDiagnosis(ps []cohort.Patient) Crosstab {
	rows := make([]string, len(ps))
	cols := make([]string, len(ps))
	for i, p := range ps {
		rows[i] = p.Gender.String()
		cols[i] = p.Diagnosis.Code()
	}
	return NewCrosstab(rows, cols, genderLabels(), diagnosisCodes())
}

// AgeGroupByDiagnosis tabulates AgeGroup against Diagnosis.
func AgeGroupByDiagnosis(ps []cohort.Patient) Crosstab {
	rows := make([]string, len(ps))
	cols := make([]string, len(ps))
	for i, p := range ps {
		rows[i] = p.AgeGroup
		cols[i] = p.Diagnosis.Code()
	}
	return NewCrosstab(rows, cols, cohort.AgeGroupLabels(), diagnosisCodes())
}

func genderLabels() []string {
	out := make([]string, len(cohort.Genders))
	for i, g := range cohort.Genders {
		out[i] = g.String()
	}
	return out
}

func diagnosisCodes() []string {
	out := make([]string, len(cohort.Diagnoses))
	for i, d := range cohort.Diagnoses {
		out[i] = d.Code()
	}
	return out
}
