package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/compliance-tracker/internal/model"
)

// WriteXLSX writes a workbook with a Details and a Summary sheet. Numbers
// are stored as numeric cells.
func WriteXLSX(w io.Writer, res *model.Result) error {
	f := xlsx.NewFile()

	details, err := f.AddSheet(DetailsSheet)
	if err != nil {
		return eris.Wrap(err, "export: add details sheet")
	}
	addHeader(details, detailsColumns)
	for _, h := range res.Details {
		row := details.AddRow()
		row.AddCell().SetString(h.Unit)
		row.AddCell().SetString(h.Residents)
		row.AddCell().SetFloat(h.TotalIncome)
		row.AddCell().SetInt(h.Size)
		row.AddCell().SetString(h.Bucket)
	}

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addHeader(summary, summaryColumns)
	for _, s := range res.Summary {
		row := summary.AddRow()
		row.AddCell().SetString(s.Label)
		row.AddCell().SetInt(s.Units)
		row.AddCell().SetInt(s.Residents)
		row.AddCell().SetFloat(s.TotalIncome)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, columns []string) {
	row := sheet.AddRow()
	for _, c := range columns {
		row.AddCell().SetString(c)
	}
}
