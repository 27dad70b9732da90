package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
	"github.com/KaramelBytes/cohortscope/internal/dataset"
	"github.com/KaramelBytes/cohortscope/internal/plots"
)

func passThrough(name string, tier Tier, calls *[]string) Step {
	return Step{Name: name, Tier: tier, Run: func(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
		*calls = append(*calls, name)
		return t, nil
	}}
}

func failing(name string, tier Tier, err error, calls *[]string) Step {
	return Step{Name: name, Tier: tier, Run: func(_ context.Context, t *dataset.Table) (*dataset.Table, error) {
		*calls = append(*calls, name)
		return nil, err
	}}
}

func TestRunnerContinuesPastRecoverableFailures(t *testing.T) {
	var calls []string
	var out bytes.Buffer
	boom := errors.New("boom")
	steps := []Step{
		passThrough("a", Terminal, &calls),
		failing("b", Recoverable, boom, &calls),
		{Name: "c", Tier: Recoverable, Run: func(context.Context, *dataset.Table) (*dataset.Table, error) {
			calls = append(calls, "c")
			panic("chart exploded")
		}},
		passThrough("d", Recoverable, &calls),
	}
	_, sum, err := NewRunner("run-1", nil, &out).Run(context.Background(), steps, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, calls)
	assert.Equal(t, "run-1", sum.RunID)
	require.Len(t, sum.Outcomes, 4)
	assert.Equal(t, StatusRecoverable, sum.Outcomes[1].Status)
	assert.Equal(t, "boom", sum.Outcomes[1].Message)
	assert.Equal(t, StatusRecoverable, sum.Outcomes[2].Status)
	assert.Contains(t, sum.Outcomes[2].Message, "chart exploded")
	assert.Len(t, sum.Failures(), 2)
	assert.Contains(t, out.String(), "Warning: b failed: boom")
}

func TestRunnerStopsAtTerminalFailure(t *testing.T) {
	var calls []string
	missing := errors.New("missing input")
	steps := []Step{
		failing("load", Terminal, missing, &calls),
		passThrough("after", Recoverable, &calls),
	}
	_, sum, err := NewRunner("run-2", nil, nil).Run(context.Background(), steps, nil)
	require.Error(t, err)
	var se *StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "load", se.Step)
	assert.Equal(t, Terminal, se.Tier)
	assert.True(t, errors.Is(err, missing))
	assert.Equal(t, []string{"load"}, calls)
	require.Len(t, sum.Outcomes, 1)
	assert.Equal(t, StatusFatal, sum.Outcomes[0].Status)
}

func TestRunnerHonorsCancellation(t *testing.T) {
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())
	steps := []Step{
		{Name: "first", Tier: Terminal, Run: func(context.Context, *dataset.Table) (*dataset.Table, error) {
			calls = append(calls, "first")
			cancel()
			return nil, nil
		}},
		passThrough("second", Recoverable, &calls),
	}
	_, _, err := NewRunner("run-3", nil, nil).Run(ctx, steps, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"first"}, calls)
}

func writeCohort(t *testing.T, dir string) string {
	t.Helper()
	lines := []string{
		"PatientID,Age,Gender,Ethnicity,Diagnosis",
		"1,65,0,0,1",
		"2,70,1,0,1",
		"3,75,0,1,1",
		"4,62,1,2,0",
		"5,68,0,0,0",
		"6,,1,0,0",
		"7,95,1,0,0",
		"8,83,0,1,0",
		"9,86,1,1,1",
	}
	p := filepath.Join(dir, "alzheimers_disease_data.csv")
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func TestEDAWithoutCharts(t *testing.T) {
	dir := t.TempDir()
	input := writeCohort(t, dir)
	var out bytes.Buffer
	eda := NewEDA(EDAOptions{
		Input: input,
		Load:  dataset.LoadOptions{ArtifactPath: filepath.Join(dir, "filtered_alzheimers_data.csv")},
		Clean: dataset.CleanOptions{ArtifactPath: filepath.Join(dir, "processed_alzheimers_data.csv")},
	}, &out, nil)

	steps := eda.Steps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"load", "clean", "bucketize", "statistical_tests"}, names)

	final, sum, err := NewRunner("eda", nil, &out).Run(context.Background(), steps, nil)
	require.NoError(t, err)
	assert.Empty(t, sum.Failures())

	res := eda.Result()
	assert.Equal(t, 9, res.RowsLoaded)
	assert.Equal(t, 8, res.RowsCleaned)
	assert.Equal(t, 7, res.RowsBucketed)
	assert.Equal(t, 7, final.Len())
	assert.Contains(t, final.Columns(), cohort.ColAgeGroup)
	assert.FileExists(t, filepath.Join(dir, "filtered_alzheimers_data.csv"))
	assert.FileExists(t, filepath.Join(dir, "processed_alzheimers_data.csv"))

	require.NotNil(t, res.Tests)
	require.NotNil(t, res.Tests.AgeTTest)
	console := out.String()
	assert.Contains(t, console, "Rows with missing values have been removed (1 dropped")
	assert.Contains(t, console, "\nAge T-Test:\nT-statistic = ")
	assert.Contains(t, console, "\nGender Chi-Square Test:\nChi2 = ")
}

func TestEDAMissingInputIsTerminal(t *testing.T) {
	dir := t.TempDir()
	eda := NewEDA(EDAOptions{
		Input: filepath.Join(dir, "absent.csv"),
		Load:  dataset.LoadOptions{ArtifactPath: filepath.Join(dir, "filtered_alzheimers_data.csv")},
	}, nil, nil)
	_, sum, err := NewRunner("eda", nil, nil).Run(context.Background(), eda.Steps(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrInputNotFound))
	assert.Len(t, sum.Outcomes, 1)
	assert.NoFileExists(t, filepath.Join(dir, "filtered_alzheimers_data.csv"))
}

func TestEDAWithCharts(t *testing.T) {
	dir := t.TempDir()
	input := writeCohort(t, dir)
	r, err := plots.NewRenderer(plots.Options{Dir: filepath.Join(dir, "charts")}, nil)
	require.NoError(t, err)
	eda := NewEDA(EDAOptions{Input: input, Charts: r}, nil, nil)
	require.Len(t, eda.Steps(), 11)

	_, sum, err := NewRunner("eda", nil, nil).Run(context.Background(), eda.Steps(), nil)
	require.NoError(t, err)
	assert.Empty(t, sum.Failures())
	// six single charts plus two for each of the three age groups
	assert.Len(t, eda.Result().Charts, 6+2*3)
}
