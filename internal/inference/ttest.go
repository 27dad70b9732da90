// Package inference implements the two-sample t-test on age and the
// chi-square test of independence between gender and diagnosis.
package inference

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrEmptyGroup   = errors.New("group is empty")
	ErrSampleSize   = errors.New("not enough observations for a pooled t-test")
	ErrZeroVariance = errors.New("pooled variance is zero")
	ErrZeroExpected = errors.New("contingency table has a zero expected count")
)

// TTestResult is a pooled two-sample t-test outcome.
type TTestResult struct {
	T     float64 `json:"t"`
	P     float64 `json:"p"`
	DoF   float64 `json:"dof"`
	N1    int     `json:"n1"`
	N2    int     `json:"n2"`
	Mean1 float64 `json:"mean1"`
	Mean2 float64 `json:"mean2"`
}

// TwoSampleTTest compares the means of x1 and x2 assuming equal variances.
// The p-value is two-sided.
func TwoSampleTTest(x1, x2 []float64) (TTestResult, error) {
	n1, n2 := len(x1), len(x2)
	if n1 == 0 || n2 == 0 {
		return TTestResult{}, fmt.Errorf("t-test with %d and %d observations: %w", n1, n2, ErrEmptyGroup)
	}
	if n1+n2 < 3 {
		return TTestResult{}, fmt.Errorf("t-test with %d observations: %w", n1+n2, ErrSampleSize)
	}
	m1, v1 := meanVariance(x1)
	m2, v2 := meanVariance(x2)
	dof := float64(n1 + n2 - 2)
	pooled := (float64(n1-1)*v1 + float64(n2-1)*v2) / dof
	if pooled == 0 {
		return TTestResult{}, ErrZeroVariance
	}
	se := math.Sqrt(pooled * (1/float64(n1) + 1/float64(n2)))
	t := (m1 - m2) / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
	p := 2 * dist.Survival(math.Abs(t))
	return TTestResult{T: t, P: math.Min(p, 1), DoF: dof, N1: n1, N2: n2, Mean1: m1, Mean2: m2}, nil
}

// meanVariance returns the sample mean and unbiased variance; a single
// observation has zero variance.
func meanVariance(x []float64) (float64, float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanVariance(x, nil)
}
