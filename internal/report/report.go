// Package report serializes a finished analysis run as JSON.
package report

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/KaramelBytes/cohortscope/internal/dataset"
	"github.com/KaramelBytes/cohortscope/internal/pipeline"
	"github.com/KaramelBytes/cohortscope/internal/utils"
)

// Number is a float that encodes NaN and infinities as null.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// Report is the JSON document written after a run.
type Report struct {
	RunID      string                `json:"run_id"`
	Input      string                `json:"input"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Rows       Rows                  `json:"rows"`
	Missing    []dataset.ColumnCount `json:"missing"`
	Artifacts  []string              `json:"artifacts,omitempty"`
	Steps      []Step                `json:"steps"`
	Charts     []string              `json:"charts,omitempty"`
	Tests      *Tests                `json:"tests,omitempty"`
}

// Rows holds the row count after each stage.
type Rows struct {
	Source   int `json:"source"`
	Loaded   int `json:"loaded"`
	Cleaned  int `json:"cleaned"`
	Bucketed int `json:"bucketed"`
}

type Step struct {
	Name       string  `json:"name"`
	Tier       string  `json:"tier"`
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

type Tests struct {
	AgeTTest    *TTest           `json:"age_t_test,omitempty"`
	GenderChi2  *ChiSquare       `json:"gender_chi_square,omitempty"`
	Contingency dataset.Crosstab `json:"contingency"`
}

type TTest struct {
	T     Number `json:"t"`
	P     Number `json:"p"`
	DoF   Number `json:"dof"`
	N1    int    `json:"n_alzheimers"`
	N2    int    `json:"n_no_alzheimers"`
	Mean1 Number `json:"mean_age_alzheimers"`
	Mean2 Number `json:"mean_age_no_alzheimers"`
}

type ChiSquare struct {
	Chi2 Number `json:"chi2"`
	P    Number `json:"p"`
	DoF  int    `json:"dof"`
}

// Build assembles a report from the runner summary and the analysis result.
func Build(input string, sum pipeline.Summary, res pipeline.EDAResult) Report {
	r := Report{
		RunID:      sum.RunID,
		Input:      input,
		StartedAt:  sum.Started.UTC(),
		FinishedAt: sum.Finished.UTC(),
		Rows: Rows{
			Source:   res.Load.SourceRows,
			Loaded:   res.RowsLoaded,
			Cleaned:  res.RowsCleaned,
			Bucketed: res.RowsBucketed,
		},
		Missing: res.Clean.Missing,
		Charts:  res.Charts,
	}
	for _, a := range []string{res.Load.Artifact, res.Clean.Artifact} {
		if a != "" {
			r.Artifacts = append(r.Artifacts, a)
		}
	}
	for _, o := range sum.Outcomes {
		r.Steps = append(r.Steps, Step{
			Name:       o.Step,
			Tier:       o.Tier,
			Status:     string(o.Status),
			Message:    o.Message,
			DurationMS: float64(o.Duration.Microseconds()) / 1000,
		})
	}
	if t := res.Tests; t != nil {
		r.Tests = &Tests{Contingency: t.Contingency}
		if tt := t.AgeTTest; tt != nil {
			r.Tests.AgeTTest = &TTest{
				T: Number(tt.T), P: Number(tt.P), DoF: Number(tt.DoF),
				N1: tt.N1, N2: tt.N2,
				Mean1: Number(tt.Mean1), Mean2: Number(tt.Mean2),
			}
		}
		if cs := t.GenderChi2; cs != nil {
			r.Tests.GenderChi2 = &ChiSquare{Chi2: Number(cs.Chi2), P: Number(cs.P), DoF: cs.DoF}
		}
	}
	return r
}

// JSON encodes the report with indentation.
func (r Report) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(b, '\n'), nil
}

// Write stores the report at path.
func Write(path string, r Report) error {
	b, err := r.JSON()
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
