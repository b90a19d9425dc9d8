// Package dataset loads tabular import data from CSV, JSON, Excel and SQL
// sources into a uniform in-memory table, and prepares it for upload:
// language-column handling, batching and import-tree ordering.
package dataset

import (
	"fmt"
	"strings"
)

// Table is an ordered column/row table of string cells. Type hints from
// ":type:" column suffixes are kept per column but cells stay strings; the
// server-side import parses them.
type Table struct {
	Columns []string
	Rows    [][]string
	Types   map[string]string

	// DecimalComma marks the semicolon-CSV dialect: float cells carry ","
	// as the decimal separator and "." for thousands.
	DecimalComma bool
}

// NewTable builds a table over the given columns.
func NewTable(columns []string) *Table {
	return &Table{Columns: columns}
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Cell returns the named column's value in the given row, or "".
func (t *Table) Cell(row int, column string) string {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if idx >= len(r) {
		return ""
	}
	return r[idx]
}

// AppendRow adds a row, padding or truncating it to the column count.
func (t *Table) AppendRow(cells []string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool { return len(t.Rows) == 0 }

// Select returns a copy containing only the kept columns, in table order.
func (t *Table) Select(keep func(column string) bool) *Table {
	var indices []int
	out := &Table{Types: map[string]string{}, DecimalComma: t.DecimalComma}
	for i, c := range t.Columns {
		if keep(c) {
			indices = append(indices, i)
			out.Columns = append(out.Columns, c)
			if hint, ok := t.Types[c]; ok {
				out.Types[c] = hint
			}
		}
	}
	for _, row := range t.Rows {
		cells := make([]string, len(indices))
		for j, idx := range indices {
			if idx < len(row) {
				cells[j] = row[idx]
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// DropEmptyRows returns a copy without rows whose cells are all blank.
func (t *Table) DropEmptyRows() *Table {
	out := &Table{Columns: t.Columns, Types: t.Types, DecimalComma: t.DecimalComma}
	for _, row := range t.Rows {
		empty := true
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Column returns all values of the named column.
func (t *Table) Column(name string) []string {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		} else {
			out = append(out, "")
		}
	}
	return out
}

// UniqueValues returns the distinct non-blank values of a column, in first
// occurrence order.
func (t *Table) UniqueValues(column string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range t.Column(column) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// DuplicateIDs returns duplicated non-blank values of the "id" column.
func (t *Table) DuplicateIDs() []string {
	counts := map[string]int{}
	for _, v := range t.Column("id") {
		v = strings.TrimSpace(v)
		if v != "" {
			counts[v]++
		}
	}
	var dupes []string
	for _, v := range t.UniqueValues("id") {
		if counts[v] > 1 {
			dupes = append(dupes, v)
		}
	}
	return dupes
}

// ForwardFilledIDs returns the "id" column with blanks carried forward from
// the previous non-blank value. Continuation rows of one2many imports carry
// no id of their own but belong to the record above them.
func (t *Table) ForwardFilledIDs() []string {
	ids := t.Column("id")
	last := ""
	for i, v := range ids {
		if strings.TrimSpace(v) == "" {
			ids[i] = last
		} else {
			last = v
		}
	}
	return ids
}

// RowMap returns one row as a column-keyed map.
func (t *Table) RowMap(row int) map[string]string {
	out := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		out[c] = t.Cell(row, c)
	}
	return out
}

func (t *Table) String() string {
	return fmt.Sprintf("Table(%d cols, %d rows)", len(t.Columns), len(t.Rows))
}
