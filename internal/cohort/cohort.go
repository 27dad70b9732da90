// Package cohort defines the clinical values shared by every pipeline stage:
// column names, the Gender and Diagnosis enumerations, age buckets and the
// typed Patient row.
package cohort

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Column names of the projected dataset.
const (
	ColPatientID = "PatientID"
	ColAge       = "Age"
	ColGender    = "Gender"
	ColDiagnosis = "Diagnosis"
	ColAgeGroup  = "AgeGroup"
)

// RequiredColumns is the projection applied by the loader, in output order.
var RequiredColumns = []string{ColPatientID, ColAge, ColGender, ColDiagnosis}

// ErrInvalidValue is returned when a present cell cannot be parsed.
var ErrInvalidValue = errors.New("invalid value")

// missingTokens mirrors the usual CSV spellings of a null cell.
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "#N/A": {}, "#NA": {}, "<NA>": {},
	"NaN": {}, "nan": {}, "-NaN": {}, "-nan": {}, "None": {}, "null": {}, "NULL": {},
	"<nil>": {},
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// Gender of a patient. Source data encodes Male as 0 and Female as 1.
type Gender int

const (
	Male Gender = iota
	Female
)

// Genders lists every gender in display order.
var Genders = []Gender{Male, Female}

func (g Gender) String() string {
	if g == Female {
		return "Female"
	}
	return "Male"
}

// Code returns the canonical source encoding ("0" or "1").
func (g Gender) Code() string { return strconv.Itoa(int(g)) }

// ParseGender accepts 0/1 in integer or float spelling.
func ParseGender(s string) (Gender, error) {
	v, err := parseBinary(s)
	if err != nil {
		return 0, fmt.Errorf("gender %q: %w", s, err)
	}
	return Gender(v), nil
}

// Diagnosis is the two-valued Alzheimer's diagnosis. Text "0"/"1" and numeric
// 0/1 parse to the same value so every stage compares the same way.
type Diagnosis int

const (
	NoAlzheimers Diagnosis = iota
	Alzheimers
)

// Diagnoses lists every diagnosis in display order.
var Diagnoses = []Diagnosis{NoAlzheimers, Alzheimers}

func (d Diagnosis) String() string {
	if d == Alzheimers {
		return "Alzheimer's"
	}
	return "No Alzheimer's"
}

// Code returns the canonical source encoding ("0" or "1").
func (d Diagnosis) Code() string { return strconv.Itoa(int(d)) }

// ParseDiagnosis accepts 0/1 in integer or float spelling.
func ParseDiagnosis(s string) (Diagnosis, error) {
	v, err := parseBinary(s)
	if err != nil {
		return 0, fmt.Errorf("diagnosis %q: %w", s, err)
	}
	return Diagnosis(v), nil
}

func parseBinary(s string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidValue
	}
	switch f {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	}
	return 0, ErrInvalidValue
}

// ParseAge parses a numeric age.
func ParseAge(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("age %q: %w", s, ErrInvalidValue)
	}
	return f, nil
}

// AgeGroup is a half-open age range [Min, Max).
type AgeGroup struct {
	Label    string
	Min, Max float64
}

// AgeGroups are the fixed buckets with edges 60, 70, 80, 90.
var AgeGroups = []AgeGroup{
	{Label: "60-70", Min: 60, Max: 70},
	{Label: "70-80", Min: 70, Max: 80},
	{Label: "80-90", Min: 80, Max: 90},
}

// BucketAge returns the group containing age, or false when no group does.
func BucketAge(age float64) (AgeGroup, bool) {
	for _, g := range AgeGroups {
		if age >= g.Min && age < g.Max {
			return g, true
		}
	}
	return AgeGroup{}, false
}

// AgeGroupLabels returns the bucket labels in order.
func AgeGroupLabels() []string {
	out := make([]string, len(AgeGroups))
	for i, g := range AgeGroups {
		out[i] = g.Label
	}
	return out
}

// Patient is the typed view of one table row. AgeGroup is empty until the
// table has been bucketized.
type Patient struct {
	ID        string
	Age       float64
	Gender    Gender
	Diagnosis Diagnosis
	AgeGroup  string
}

// Ages extracts the Age of every patient.
func Ages(ps []Patient) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Age
	}
	return out
}

// SplitByDiagnosis partitions patients by diagnosis, preserving order.
func SplitByDiagnosis(ps []Patient) map[Diagnosis][]Patient {
	out := make(map[Diagnosis][]Patient, len(Diagnoses))
	for _, p := range ps {
		out[p.Diagnosis] = append(out[p.Diagnosis], p)
	}
	return out
}
