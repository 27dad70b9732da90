package inference

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
	"github.com/KaramelBytes/cohortscope/internal/dataset"
)

// Results collects both tests. A nil field means that test failed.
type Results struct {
	AgeTTest    *TTestResult     `json:"age_t_test,omitempty"`
	GenderChi2  *ChiSquareResult `json:"gender_chi_square,omitempty"`
	Contingency dataset.Crosstab `json:"contingency"`
}

// Run performs the age t-test (Alzheimer's group first) and the gender by
// diagnosis chi-square test, writing each result to w as it completes. Both
// tests are attempted; their errors are joined.
func Run(w io.Writer, ps []cohort.Patient) (Results, error) {
	var res Results
	var errs []error

	groups := cohort.SplitByDiagnosis(ps)
	yes := cohort.Ages(groups[cohort.Alzheimers])
	no := cohort.Ages(groups[cohort.NoAlzheimers])
	if tt, err := TwoSampleTTest(yes, no); err != nil {
		errs = append(errs, fmt.Errorf("age t-test: %w", err))
	} else {
		res.AgeTTest = &tt
		fmt.Fprintf(w, "\nAge T-Test:\nT-statistic = %.4f\n", tt.T)
		fmt.Fprintf(w, "P-value = %.4f\n", tt.P)
	}

	res.Contingency = dataset.GenderByDiagnosis(ps)
	if cs, err := ChiSquareIndependence(res.Contingency.Counts, true); err != nil {
		errs = append(errs, fmt.Errorf("gender chi-square test: %w", err))
	} else {
		res.GenderChi2 = &cs
		fmt.Fprintf(w, "\nGender Chi-Square Test:\nChi2 = %.4f\n", cs.Chi2)
		fmt.Fprintf(w, "P-value = %.4f\n", cs.P)
	}
	return res, errors.Join(errs...)
}

// WriteContingency renders a crosstab as a console table.
func WriteContingency(w io.Writer, ct dataset.Crosstab) {
	table := tablewriter.NewWriter(w)
	header := append([]string{"Gender \\ Diagnosis"}, ct.Cols...)
	table.SetHeader(header)
	for i, r := range ct.Rows {
		row := []string{r}
		for _, v := range ct.Counts[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 0, 64))
		}
		table.Append(row)
	}
	table.Render()
}
