package dataset

import (
	"fmt"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
	"github.com/KaramelBytes/cohortscope/internal/utils"
)

// CleanOptions controls where the cleaned table is persisted.
type CleanOptions struct {
	// ArtifactPath receives the cleaned table when rows were dropped. Empty
	// disables the write.
	ArtifactPath string
	Compress     bool
}

// CleanResult reports what Clean found and did.
type CleanResult struct {
	Missing     []ColumnCount `json:"missing"`
	RowsBefore  int           `json:"rows_before"`
	RowsDropped int           `json:"rows_dropped"`
	Artifact    string        `json:"artifact,omitempty"`
}

// TotalMissing is the number of missing cells found.
func (r CleanResult) TotalMissing() int { return TotalMissing(r.Missing) }

// Clean drops every row holding a missing cell. A table without missing cells
// is returned as is and nothing is written.
func Clean(t *Table, opt CleanOptions) (*Table, CleanResult, error) {
	res := CleanResult{Missing: t.MissingCounts(), RowsBefore: t.Len()}
	if res.TotalMissing() == 0 {
		return t, res, nil
	}
	keep := make([]int, 0, t.Len())
	for i, row := range t.Rows() {
		if completeRow(row) {
			keep = append(keep, i)
		}
	}
	out, err := t.Subset(keep)
	if err != nil {
		return nil, res, fmt.Errorf("drop incomplete rows: %w", err)
	}
	res.RowsDropped = t.Len() - out.Len()
	if opt.ArtifactPath != "" {
		written, err := utils.WriteStream(opt.ArtifactPath, opt.Compress, out.WriteCSV)
		if err != nil {
			return nil, res, fmt.Errorf("write %s: %w", opt.ArtifactPath, err)
		}
		res.Artifact = written
	}
	return out, res, nil
}

func completeRow(row []string) bool {
	for _, v := range row {
		if cohort.IsMissing(v) {
			return false
		}
	}
	return true
}
