package inference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareResult is a test of independence on a contingency table.
type ChiSquareResult struct {
	Chi2     float64     `json:"chi2"`
	P        float64     `json:"p"`
	DoF      int         `json:"dof"`
	Expected [][]float64 `json:"expected"`
}

// ChiSquareIndependence tests whether the rows and columns of observed are
// independent. Expected counts come from the margins. With yates set, the
// continuity correction is applied when the table has one degree of freedom.
// A table with zero degrees of freedom yields chi2 = 0 and p = 1.
func ChiSquareIndependence(observed [][]float64, yates bool) (ChiSquareResult, error) {
	r := len(observed)
	if r == 0 || len(observed[0]) == 0 {
		return ChiSquareResult{}, fmt.Errorf("chi-square on an empty table: %w", ErrEmptyGroup)
	}
	c := len(observed[0])
	rowSum := make([]float64, r)
	colSum := make([]float64, c)
	var total float64
	for i, row := range observed {
		if len(row) != c {
			return ChiSquareResult{}, fmt.Errorf("contingency row %d has %d cells, want %d", i, len(row), c)
		}
		for j, v := range row {
			rowSum[i] += v
			colSum[j] += v
			total += v
		}
	}
	if total == 0 {
		return ChiSquareResult{}, fmt.Errorf("chi-square on a table without observations: %w", ErrEmptyGroup)
	}

	expected := make([][]float64, r)
	for i := range expected {
		expected[i] = make([]float64, c)
		for j := range expected[i] {
			e := rowSum[i] * colSum[j] / total
			if e == 0 {
				return ChiSquareResult{}, fmt.Errorf("cell (%d,%d): %w", i, j, ErrZeroExpected)
			}
			expected[i][j] = e
		}
	}

	dof := (r - 1) * (c - 1)
	res := ChiSquareResult{DoF: dof, Expected: expected}
	if dof == 0 {
		res.Chi2, res.P = 0, 1
		return res, nil
	}

	for i := range observed {
		for j, o := range observed[i] {
			e := expected[i][j]
			if yates && dof == 1 {
				diff := e - o
				o += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			d := o - e
			res.Chi2 += d * d / e
		}
	}
	res.P = distuv.ChiSquared{K: float64(dof)}.Survival(res.Chi2)
	return res, nil
}
