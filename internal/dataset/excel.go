package dataset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// EXCEL READING
// =============================================================================

// Workbook wraps an open Excel file for sheet-wise table extraction.
type Workbook struct {
	path string
	file *excelize.File
}

// OpenWorkbook opens an .xlsx workbook.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{path: path, file: f}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error { return w.file.Close() }

// Path returns the workbook file path.
func (w *Workbook) Path() string { return w.path }

// Sheets returns all worksheet names in workbook order.
func (w *Workbook) Sheets() []string { return w.file.GetSheetList() }

// SheetsMatching returns the worksheets whose title matches the pattern,
// paired with their regex match.
func (w *Workbook) SheetsMatching(pattern *regexp.Regexp) map[string][]string {
	out := map[string][]string{}
	for _, name := range w.Sheets() {
		if match := pattern.FindStringSubmatch(name); match != nil {
			out[name] = match
		}
	}
	return out
}

// Table reads one worksheet into a table. The first row is the header; the
// ":type:" suffix convention applies like in CSV files.
func (w *Workbook) Table(sheet string) (*Table, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s!%s: %w", w.path, sheet, err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	table := &Table{Types: map[string]string{}}
	for _, col := range rows[0] {
		col = strings.TrimSpace(col)
		if match := typeColRegex.FindStringSubmatch(col); match != nil {
			col = match[1]
			table.Types[col] = match[2]
		}
		table.Columns = append(table.Columns, col)
	}
	for _, row := range rows[1:] {
		table.AppendRow(row)
	}
	return table, nil
}
