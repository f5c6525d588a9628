// Package export writes run results as CSV files or a Details/Summary
// workbook.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-tracker/internal/model"
)

// Sheet names in the exported workbook.
const (
	DetailsSheet = "Details"
	SummarySheet = "Summary"
)

// detailsColumns defines the ordered Details output columns.
var detailsColumns = []string{
	"Unit",
	"Resident Name",
	"Total Household Income",
	"# in Household",
	"Income Bucket",
}

// summaryColumns defines the ordered Summary output columns.
var summaryColumns = []string{
	"Income Bucket",
	"Units",
	"Residents",
	"Total Household Income",
}

func detailsRow(h model.Household) []string {
	return []string{
		h.Unit,
		h.Residents,
		formatAmount(h.TotalIncome),
		strconv.Itoa(h.Size),
		h.Bucket,
	}
}

func summaryRow(s model.BucketSummary) []string {
	return []string{
		s.Label,
		strconv.Itoa(s.Units),
		strconv.Itoa(s.Residents),
		formatAmount(s.TotalIncome),
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteDetailsCSV writes one row per unit.
func WriteDetailsCSV(w io.Writer, details []model.Household) error {
	rows := make([][]string, 0, len(details))
	for _, h := range details {
		rows = append(rows, detailsRow(h))
	}
	return writeCSV(w, detailsColumns, rows)
}

// WriteSummaryCSV writes one row per bucket label.
func WriteSummaryCSV(w io.Writer, summary []model.BucketSummary) error {
	rows := make([][]string, 0, len(summary))
	for _, s := range summary {
		rows = append(rows, summaryRow(s))
	}
	return writeCSV(w, summaryColumns, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// SummaryPath derives the companion summary file for a details CSV path:
// "out.csv" becomes "out-summary.csv".
func SummaryPath(detailsPath string) string {
	ext := filepath.Ext(detailsPath)
	return strings.TrimSuffix(detailsPath, ext) + "-summary" + ext
}

// WriteFile writes res to path. An .xlsx path gets the two-sheet workbook;
// a .csv path gets the details, with the summary written next to it.
func WriteFile(path string, res *model.Result) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		if err := createAndWrite(path, func(w io.Writer) error { return WriteXLSX(w, res) }); err != nil {
			return nil, err
		}
		return []string{path}, nil
	case ".csv":
		if err := createAndWrite(path, func(w io.Writer) error { return WriteDetailsCSV(w, res.Details) }); err != nil {
			return nil, err
		}
		summary := SummaryPath(path)
		if err := createAndWrite(summary, func(w io.Writer) error { return WriteSummaryCSV(w, res.Summary) }); err != nil {
			return nil, err
		}
		return []string{path, summary}, nil
	default:
		return nil, eris.Errorf("export: unsupported output %q (want .csv or .xlsx)", filepath.Base(path))
	}
}

func createAndWrite(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}
	return nil
}
