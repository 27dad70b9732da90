package dataset

import (
	"fmt"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
)

// Bucketize adds the AgeGroup column and drops rows whose age falls outside
// every group.
func Bucketize(t *Table) (*Table, error) {
	ages, err := t.Column(cohort.ColAge)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(ages))
	keep := make([]int, 0, len(ages))
	for i, raw := range ages {
		age, err := cohort.ParseAge(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		g, ok := cohort.BucketAge(age)
		if !ok {
			continue
		}
		labels[i] = g.Label
		keep = append(keep, i)
	}
	withGroup, err := t.WithColumn(cohort.ColAgeGroup, labels)
	if err != nil {
		return nil, err
	}
	return withGroup.Subset(keep)
}

// PresentAgeGroups returns the groups that occur in ps, in bucket order.
func PresentAgeGroups(ps []cohort.Patient) []string {
	seen := make(map[string]bool)
	for _, p := range ps {
		seen[p.AgeGroup] = true
	}
	var out []string
	for _, l := range cohort.AgeGroupLabels() {
		if seen[l] {
			out = append(out, l)
		}
	}
	return out
}
