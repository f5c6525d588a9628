package fetcher

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/compliance-tracker/internal/model"
)

// ReadCSV parses delimited text. A UTF-8 or UTF-16 byte order mark is
// honored and removed.
func ReadCSV(r io.Reader, opts Options) (*model.Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, eris.Wrap(err, "csv: decode input")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = opts.Delimiter
	if reader.Comma == 0 {
		reader.Comma = detectDelimiter(data, opts.HeaderRow)
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow ragged rows

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read rows")
	}
	return buildTable(rows, opts.HeaderRow)
}
