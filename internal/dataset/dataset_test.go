package dataset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
	"github.com/KaramelBytes/cohortscope/internal/utils"
)

var sourceRows = []string{
	"PatientID,Age,Gender,Ethnicity,Diagnosis,MMSE",
	"1,65,0,1,0,21.4",
	"2,75,1,0,1,12.0",
	"3,,0,2,0,25.1",
}

func writeSource(t *testing.T, name string, lines []string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return p
}

func TestLoadProjectsAndRoundTripsThroughArtifact(t *testing.T) {
	src := writeSource(t, "alzheimers.csv", sourceRows)
	artifact := filepath.Join(t.TempDir(), "filtered_alzheimers_data.csv")

	tbl, res, err := Load(src, LoadOptions{ArtifactPath: artifact})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tbl.Columns(); strings.Join(got, ",") != "PatientID,Age,Gender,Diagnosis" {
		t.Fatalf("unexpected columns %v", got)
	}
	if tbl.Len() != 3 || res.SourceRows != 3 {
		t.Fatalf("expected 3 rows, got table=%d source=%d", tbl.Len(), res.SourceRows)
	}
	if res.Artifact != artifact {
		t.Fatalf("artifact path %q", res.Artifact)
	}
	b, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	want := "PatientID,Age,Gender,Diagnosis\n1,65,0,0\n2,75,1,1\n3,,0,0\n"
	if string(b) != want {
		t.Fatalf("artifact content:\n%s\nwant:\n%s", b, want)
	}
}

func TestLoadInMemoryWhenArtifactDisabled(t *testing.T) {
	src := writeSource(t, "alzheimers.csv", sourceRows)
	tbl, res, err := Load(src, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Empty(t, res.Artifact)
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "filtered_alzheimers_data.csv")
	_, _, err := Load(filepath.Join(dir, "nope.csv"), LoadOptions{ArtifactPath: artifact})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputNotFound))
	_, statErr := os.Stat(artifact)
	assert.True(t, os.IsNotExist(statErr), "no artifact may be written")
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	src := writeSource(t, "bad.csv", []string{"PatientID,Age,Gender", "1,65,0"})
	_, _, err := Load(src, LoadOptions{})
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestLoadCaseInsensitiveHeaderAndTSV(t *testing.T) {
	src := writeSource(t, "data.tsv", []string{"patientid\tage\tgender\tdiagnosis", "7\t81\t1\t1"})
	tbl, _, err := Load(src, LoadOptions{})
	require.NoError(t, err)
	ps, err := tbl.Patients()
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, cohort.Patient{ID: "7", Age: 81, Gender: cohort.Female, Diagnosis: cohort.Alzheimers}, ps[0])
}

func TestLoadGzipAndCompressedArtifact(t *testing.T) {
	dir := t.TempDir()
	src, err := utils.WriteStream(filepath.Join(dir, "in.csv"), true, func(w io.Writer) error {
		_, err := io.WriteString(w, strings.Join(sourceRows, "\n")+"\n")
		return err
	})
	require.NoError(t, err)
	tbl, res, err := Load(src, LoadOptions{ArtifactPath: filepath.Join(dir, "out", "filtered.csv"), Compress: true})
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.True(t, strings.HasSuffix(res.Artifact, "filtered.csv.gz"))
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"PatientID", "Age", "Gender", "Diagnosis"},
		{"1", 65, 0, 0},
		{"2", 88, 1, 1},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "cohort.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, _, err := Load(path, LoadOptions{})
	require.NoError(t, err)
	ps, err := tbl.Patients()
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, 88.0, ps[1].Age)

	_, _, err = Load(path, LoadOptions{SheetName: "Missing"})
	assert.ErrorContains(t, err, "sheet 'Missing' not found")
}

func TestCleanDropsIncompleteRowsAndPersists(t *testing.T) {
	src := writeSource(t, "alzheimers.csv", sourceRows)
	tbl, _, err := Load(src, LoadOptions{})
	require.NoError(t, err)

	processed := filepath.Join(t.TempDir(), "processed_alzheimers_data.csv")
	cleaned, res, err := Clean(tbl, CleanOptions{ArtifactPath: processed})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalMissing())
	assert.Equal(t, 1, res.RowsDropped)
	assert.Equal(t, 2, cleaned.Len())
	assert.Less(t, cleaned.Len(), tbl.Len())
	assert.Zero(t, TotalMissing(cleaned.MissingCounts()))
	assert.FileExists(t, processed)

	// cleaning a clean table is a no-op and writes nothing
	again := filepath.Join(t.TempDir(), "again.csv")
	cleaned2, res2, err := Clean(cleaned, CleanOptions{ArtifactPath: again})
	require.NoError(t, err)
	assert.Zero(t, res2.TotalMissing())
	assert.Equal(t, cleaned.Rows(), cleaned2.Rows())
	assert.NoFileExists(t, again)
}

func TestCleanTreatsNAAsMissing(t *testing.T) {
	tbl, err := New(cohort.RequiredColumns, [][]string{
		{"1", "NA", "0", "0"},
		{"2", "70", "None", "1"},
		{"3", "71", "1", "1"},
	})
	require.NoError(t, err)
	cleaned, res, err := Clean(tbl, CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalMissing())
	assert.Equal(t, 1, cleaned.Len())
}

func TestCleanAllRowsIncomplete(t *testing.T) {
	tbl, err := New(cohort.RequiredColumns, [][]string{{"1", "", "0", "0"}})
	require.NoError(t, err)
	cleaned, _, err := Clean(tbl, CleanOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, cleaned.Len())
	assert.Equal(t, cohort.RequiredColumns, cleaned.Columns())
}

func TestBucketizeRetainsOnlyBucketedAges(t *testing.T) {
	ages := []string{"59", "60", "69", "70", "79.5", "80", "89", "90", "101"}
	var rows [][]string
	for i, a := range ages {
		rows = append(rows, []string{string(rune('a' + i)), a, "0", "1"})
	}
	tbl, err := New(cohort.RequiredColumns, rows)
	require.NoError(t, err)

	out, err := Bucketize(tbl)
	require.NoError(t, err)
	ps, err := out.Patients()
	require.NoError(t, err)

	got := map[float64]string{}
	for _, p := range ps {
		got[p.Age] = p.AgeGroup
	}
	assert.Equal(t, map[float64]string{
		60: "60-70", 69: "60-70",
		70: "70-80", 79.5: "70-80",
		80: "80-90", 89: "80-90",
	}, got)
	assert.Contains(t, out.Columns(), cohort.ColAgeGroup)
}

func TestBucketizeRejectsNonNumericAge(t *testing.T) {
	tbl, err := New(cohort.RequiredColumns, [][]string{{"1", "old", "0", "0"}})
	require.NoError(t, err)
	_, err = Bucketize(tbl)
	assert.True(t, errors.Is(err, cohort.ErrInvalidValue))
}

func TestEndToEndCohort(t *testing.T) {
	src := writeSource(t, "cohort.csv", []string{
		"PatientID,Age,Gender,Diagnosis",
		"1,65,0,0",
		"2,75,1,1",
		"3,,0,0",
	})
	tbl, _, err := Load(src, LoadOptions{})
	require.NoError(t, err)
	cleaned, _, err := Clean(tbl, CleanOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, cleaned.Len())

	bucketed, err := Bucketize(cleaned)
	require.NoError(t, err)
	ps, err := bucketed.Patients()
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "60-70", ps[0].AgeGroup)
	assert.Equal(t, "70-80", ps[1].AgeGroup)
	assert.Equal(t, []string{"60-70", "70-80"}, PresentAgeGroups(ps))

	ct := GenderByDiagnosis(ps)
	assert.Equal(t, []string{"Male", "Female"}, ct.Rows)
	assert.Equal(t, []string{"0", "1"}, ct.Cols)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, ct.Counts)
	assert.Equal(t, 1.0, ct.Count("Male", "0"))
	assert.Equal(t, 1.0, ct.Count("Female", "1"))
}

func TestCrosstabKeepsObservedCategoriesOnly(t *testing.T) {
	ct := NewCrosstab(
		[]string{"70-80", "70-80", "60-70"},
		[]string{"1", "1", "1"},
		cohort.AgeGroupLabels(), []string{"0", "1"},
	)
	assert.Equal(t, []string{"60-70", "70-80"}, ct.Rows)
	assert.Equal(t, []string{"1"}, ct.Cols)
	assert.Equal(t, [][]float64{{1}, {2}}, ct.Counts)
	assert.Equal(t, 3.0, ct.Total())
}

func TestSummaryMarkdown(t *testing.T) {
	src := writeSource(t, "alzheimers.csv", sourceRows)
	tbl, _, err := Load(src, LoadOptions{})
	require.NoError(t, err)
	md := Summarize("alzheimers.csv", tbl).Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: alzheimers.csv",
		"Rows: 3",
		"- Age: numeric (non-null 2, missing 1 = 33.3%)",
		"min 65, max 75, mean 70",
		"- Diagnosis: categorical (non-null 3, missing 0 = 0.0%) — No Alzheimer's(2), Alzheimer's(1)",
		"- Gender: categorical",
		"Male(2), Female(1)",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
