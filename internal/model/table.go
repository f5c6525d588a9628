package model

import "strings"

// Table is a rectangular sheet of cells keyed by header name.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a Table from a header row and data rows. Header names are
// trimmed; duplicate headers keep their first position.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{
		Columns: make([]string, len(header)),
		Rows:    rows,
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.Columns[i] = h
		if _, ok := t.index[h]; !ok {
			t.index[h] = i
		}
	}
	return t
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[strings.TrimSpace(name)]
	return ok
}

// Cell returns the value at row i for the named column, or "" when the
// column is unknown or the row is short.
func (t *Table) Cell(i int, column string) string {
	idx, ok := t.index[strings.TrimSpace(column)]
	if !ok || i < 0 || i >= len(t.Rows) {
		return ""
	}
	row := t.Rows[i]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
