package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/KaramelBytes/cohortscope/internal/cohort"
	"github.com/KaramelBytes/cohortscope/internal/utils"
)

// ErrInputNotFound is returned when the input file does not exist.
var ErrInputNotFound = errors.New("input file not found")

// LoadOptions controls how the input is read and where the projection is stored.
type LoadOptions struct {
	// Delimiter for CSV. If 0, sniffed from the extension (',' or '\t').
	Delimiter rune
	// SheetName selects the XLSX sheet; the first sheet when empty.
	SheetName string
	// ArtifactPath receives the projected table before it is re-read. When
	// empty the round trip goes through memory.
	ArtifactPath string
	// Compress gzips the artifact.
	Compress bool
}

// LoadResult describes what Load read and wrote.
type LoadResult struct {
	SourceRows    int
	SourceColumns []string
	Artifact      string
}

// Load reads the input, projects it onto the required columns, writes the
// projection to the artifact and returns the table re-read from it.
func Load(path string, opt LoadOptions) (*Table, LoadResult, error) {
	var res LoadResult
	header, rows, err := readSource(path, opt)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, res, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, res, fmt.Errorf("load %s: %w", path, err)
	}
	header = canonicalHeader(header)
	res.SourceRows = len(rows)
	res.SourceColumns = header

	raw, err := New(header, rows)
	if err != nil {
		return nil, res, fmt.Errorf("load %s: %w", path, err)
	}
	projected, err := raw.Select(cohort.RequiredColumns...)
	if err != nil {
		return nil, res, fmt.Errorf("load %s: %w", path, err)
	}

	if opt.ArtifactPath == "" {
		var buf bytes.Buffer
		if err := projected.WriteCSV(&buf); err != nil {
			return nil, res, fmt.Errorf("encode projection: %w", err)
		}
		h, rs, err := readDelimited(&buf, ',')
		if err != nil {
			return nil, res, fmt.Errorf("decode projection: %w", err)
		}
		t, err := New(h, rs)
		return t, res, err
	}

	written, err := utils.WriteStream(opt.ArtifactPath, opt.Compress, projected.WriteCSV)
	if err != nil {
		return nil, res, fmt.Errorf("write %s: %w", opt.ArtifactPath, err)
	}
	res.Artifact = written
	h, rs, err := readSource(written, LoadOptions{Delimiter: ','})
	if err != nil {
		return nil, res, fmt.Errorf("reload %s: %w", written, err)
	}
	t, err := New(h, rs)
	if err != nil {
		return nil, res, fmt.Errorf("reload %s: %w", written, err)
	}
	return t, res, nil
}

// canonicalHeader maps case-insensitive matches of the required columns onto
// their canonical spelling.
func canonicalHeader(header []string) []string {
	want := make(map[string]string, len(cohort.RequiredColumns))
	for _, c := range cohort.RequiredColumns {
		want[strings.ToLower(c)] = c
	}
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	for i, h := range header {
		out[i] = h
		c, ok := want[strings.ToLower(h)]
		if !ok || c == h || taken[c] {
			continue
		}
		out[i] = c
		taken[c] = true
	}
	return out
}
