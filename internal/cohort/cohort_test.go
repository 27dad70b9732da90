package cohort

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketAgeEdges(t *testing.T) {
	cases := []struct {
		age   float64
		label string
		ok    bool
	}{
		{59.9, "", false},
		{60, "60-70", true},
		{69.99, "60-70", true},
		{70, "70-80", true},
		{79, "70-80", true},
		{80, "80-90", true},
		{89.5, "80-90", true},
		{90, "", false},
		{95, "", false},
	}
	for _, c := range cases {
		g, ok := BucketAge(c.age)
		assert.Equal(t, c.ok, ok, "age %v", c.age)
		assert.Equal(t, c.label, g.Label, "age %v", c.age)
	}
}

func TestParseDiagnosisAcceptsTextAndNumeric(t *testing.T) {
	for _, s := range []string{"1", "1.0", " 1 "} {
		d, err := ParseDiagnosis(s)
		require.NoError(t, err)
		assert.Equal(t, Alzheimers, d)
	}
	d, err := ParseDiagnosis("0.0")
	require.NoError(t, err)
	assert.Equal(t, NoAlzheimers, d)
	assert.Equal(t, "0", d.Code())

	_, err = ParseDiagnosis("2")
	assert.True(t, errors.Is(err, ErrInvalidValue))
	_, err = ParseDiagnosis("yes")
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestGenderLabels(t *testing.T) {
	g, err := ParseGender("1")
	require.NoError(t, err)
	assert.Equal(t, "Female", g.String())
	assert.Equal(t, "Male", Male.String())
	assert.Equal(t, "1", Female.Code())
}

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"", "  ", "NA", "NaN", "nan", "None", "null", "<nil>"} {
		assert.True(t, IsMissing(s), "%q", s)
	}
	for _, s := range []string{"0", "Nonee", "65"} {
		assert.False(t, IsMissing(s), "%q", s)
	}
}

func TestSplitByDiagnosis(t *testing.T) {
	ps := []Patient{
		{ID: "1", Age: 65, Diagnosis: NoAlzheimers},
		{ID: "2", Age: 75, Diagnosis: Alzheimers},
		{ID: "3", Age: 68, Diagnosis: NoAlzheimers},
	}
	split := SplitByDiagnosis(ps)
	assert.Equal(t, []float64{65, 68}, Ages(split[NoAlzheimers]))
	assert.Equal(t, []float64{75}, Ages(split[Alzheimers]))
}
