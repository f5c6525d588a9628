package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/compliance-tracker/internal/model"
)

// ReadXLSX parses workbook bytes and returns the selected sheet as a table.
func ReadXLSX(data []byte, opts Options) (*model.Table, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}

	sheet, err := selectSheet(f, opts)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cellText(cell)
		}
		rows = append(rows, cells)
	}
	return buildTable(rows, opts.HeaderRow)
}

// selectSheet resolves Options.SheetName, then Options.SheetIndex.
func selectSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if name := strings.TrimSpace(opts.SheetName); name != "" {
		if sheet, ok := f.Sheet[name]; ok {
			return sheet, nil
		}
		names := make([]string, 0, len(f.Sheets))
		for _, s := range f.Sheets {
			names = append(names, s.Name)
		}
		return nil, eris.Errorf("xlsx: sheet %q not found (have %v)", name, names)
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

// cellText returns the stored value of number cells so a display format
// like "#,##0" cannot round an income. Dates keep their formatted text.
func cellText(cell *xlsx.Cell) string {
	if cell == nil {
		return ""
	}
	if cell.Type() == xlsx.CellTypeNumeric && !cell.IsTime() {
		return cell.Value
	}
	return cell.String()
}
