// Package fetcher reads uploaded roster files (CSV or XLSX) into a table of
// named columns.
package fetcher

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-tracker/internal/model"
)

var (
	// ErrUnsupportedFormat is returned for file types that cannot be read.
	ErrUnsupportedFormat = eris.New("unsupported file format")
	// ErrEmptyTable is returned when no header row can be found.
	ErrEmptyTable = eris.New("table has no header row")
)

// Options configures how a roster file is turned into a table.
type Options struct {
	HeaderRow  int    // zero-based row holding column titles; rows above it are ignored
	SheetIndex int    // xlsx only, default 0
	SheetName  string // xlsx only, overrides SheetIndex
	Delimiter  rune   // csv only, 0 = detect among ',', ';', '\t'
}

// Format is a supported input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks a format from a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", eris.Wrapf(ErrUnsupportedFormat, "fetcher: %q", filepath.Base(name))
	}
}

// ReadTable opens path and parses it according to its extension.
func ReadTable(path string, opts Options) (*model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return ParseTable(filepath.Base(path), f, opts)
}

// ParseTable reads r fully and parses it as the format implied by name.
func ParseTable(name string, r io.Reader, opts Options) (*model.Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if opts.Delimiter == 0 && strings.EqualFold(filepath.Ext(name), ".tsv") {
		opts.Delimiter = '\t'
	}

	switch format {
	case FormatXLSX:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: read upload")
		}
		return ReadXLSX(data, opts)
	default:
		return ReadCSV(r, opts)
	}
}

// buildTable applies the header offset to raw rows and drops rows with no
// content at all.
func buildTable(rows [][]string, headerRow int) (*model.Table, error) {
	if headerRow < 0 {
		return nil, eris.Errorf("fetcher: header row must not be negative, got %d", headerRow)
	}
	if headerRow >= len(rows) {
		return nil, eris.Wrapf(ErrEmptyTable, "fetcher: header row %d but file has %d rows", headerRow, len(rows))
	}

	header := rows[headerRow]
	if isBlank(header) {
		return nil, eris.Wrapf(ErrEmptyTable, "fetcher: header row %d is blank", headerRow)
	}

	var data [][]string
	for _, row := range rows[headerRow+1:] {
		if isBlank(row) {
			continue
		}
		data = append(data, row)
	}
	return model.NewTable(header, data), nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// detectDelimiter picks the most frequent of ',', ';' and '\t' on the
// header line. Empty lines are not counted, matching encoding/csv.
func detectDelimiter(sample []byte, headerRow int) rune {
	var lines [][]byte
	for _, l := range bytes.Split(sample, []byte("\n")) {
		if l = bytes.TrimSuffix(l, []byte("\r")); len(l) > 0 {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return ','
	}
	line := lines[0]
	if headerRow > 0 && headerRow < len(lines) {
		line = lines[headerRow]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
