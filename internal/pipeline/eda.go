package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
	"github.com/KaramelBytes/cohortscope/internal/dataset"
	"github.com/KaramelBytes/cohortscope/internal/inference"
	"github.com/KaramelBytes/cohortscope/internal/plots"
)

// EDAOptions configures the cohort analysis.
type EDAOptions struct {
	Input string
	Load  dataset.LoadOptions
	Clean dataset.CleanOptions
	// Charts is nil when chart rendering is disabled.
	Charts *plots.Renderer
}

// EDAResult accumulates what the analysis produced.
type EDAResult struct {
	Load         dataset.LoadResult
	Clean        dataset.CleanResult
	RowsLoaded   int
	RowsCleaned  int
	RowsBucketed int
	Charts       []string
	Tests        *inference.Results
}

// EDA builds the analysis steps and collects their results.
type EDA struct {
	opt    EDAOptions
	out    io.Writer
	log    *zap.Logger
	result EDAResult
}

// NewEDA creates the analysis. Status lines and test results go to out.
func NewEDA(opt EDAOptions, out io.Writer, log *zap.Logger) *EDA {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EDA{opt: opt, out: out, log: log}
}

// Result returns the accumulated results.
func (e *EDA) Result() EDAResult { return e.result }

// Steps returns the analysis in execution order. Chart steps are omitted when
// no renderer is configured.
func (e *EDA) Steps() []Step {
	steps := []Step{
		{Name: "load", Tier: Terminal, Run: e.load},
		{Name: "clean", Tier: Terminal, Run: e.clean},
	}
	steps = e.appendChart(steps, "age_distribution", (*plots.Renderer).AgeDistribution)
	steps = e.appendChart(steps, "gender_distribution", (*plots.Renderer).GenderDistribution)
	steps = e.appendChart(steps, "diagnosis_distribution", (*plots.Renderer).DiagnosisDistribution)
	steps = append(steps, Step{Name: "bucketize", Tier: Terminal, Run: e.bucketize})
	steps = e.appendChart(steps, "group_distribution", (*plots.Renderer).GroupDistribution)
	steps = e.appendChart(steps, "gender_diagnosis", (*plots.Renderer).GenderDiagnosis)
	steps = e.appendChart(steps, "detailed_age_groups", (*plots.Renderer).DetailedAgeGroups)
	steps = append(steps, Step{Name: "statistical_tests", Tier: Recoverable, Run: e.tests})
	steps = e.appendChart(steps, "age_by_diagnosis", (*plots.Renderer).AgeByDiagnosis)
	return steps
}

func (e *EDA) appendChart(steps []Step, name string, draw func(*plots.Renderer, []cohort.Patient) ([]string, error)) []Step {
	if e.opt.Charts == nil {
		return steps
	}
	return append(steps, Step{
		Name: name,
		Tier: Recoverable,
		Run: func(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
			ps, err := t.Patients()
			if err != nil {
				return t, err
			}
			files, err := draw(e.opt.Charts, ps)
			e.result.Charts = append(e.result.Charts, files...)
			return t, err
		},
	})
}

func (e *EDA) load(_ context.Context, _ *dataset.Table) (*dataset.Table, error) {
	t, res, err := dataset.Load(e.opt.Input, e.opt.Load)
	if err != nil {
		return nil, err
	}
	e.result.Load = res
	e.result.RowsLoaded = t.Len()
	e.log.Info("dataset loaded",
		zap.String("input", e.opt.Input),
		zap.Int("rows", t.Len()),
		zap.Int("source_columns", len(res.SourceColumns)),
		zap.String("artifact", res.Artifact))
	return t, nil
}

func (e *EDA) clean(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
	before := dataset.TotalMissing(t.MissingCounts())
	if before > 0 {
		color.New(color.FgYellow).Fprintf(e.out, "⚠ There are missing values (%d cells). Processing missing values...\n", before)
	}
	cleaned, res, err := dataset.Clean(t, e.opt.Clean)
	if err != nil {
		return nil, err
	}
	e.result.Clean = res
	e.result.RowsCleaned = cleaned.Len()

	ok := color.New(color.FgGreen)
	if res.TotalMissing() == 0 {
		ok.Fprintln(e.out, "✓ No missing values detected. The data is ready.")
		return cleaned, nil
	}
	ok.Fprintf(e.out, "✓ Rows with missing values have been removed (%d dropped, %d remain).\n", res.RowsDropped, cleaned.Len())
	if res.Artifact != "" {
		ok.Fprintf(e.out, "✓ Saved processed data to %s\n", res.Artifact)
	}
	return cleaned, nil
}

func (e *EDA) bucketize(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
	out, err := dataset.Bucketize(t)
	if err != nil {
		return nil, err
	}
	e.result.RowsBucketed = out.Len()
	e.log.Info("age groups assigned",
		zap.Int("rows", out.Len()),
		zap.Int("dropped", t.Len()-out.Len()))
	return out, nil
}

func (e *EDA) tests(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
	ps, err := t.Patients()
	if err != nil {
		return t, err
	}
	res, err := inference.Run(e.out, ps)
	e.result.Tests = &res
	if len(res.Contingency.Rows) > 0 {
		fmt.Fprintln(e.out, "\nGender x Diagnosis:")
		inference.WriteContingency(e.out, res.Contingency)
	}
	return t, err
}
