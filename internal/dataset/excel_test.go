package dataset

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestWorkbookTable(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"res.partner": {
			{"id", "name", "qty:type:integer"},
			{"x.p1", "Alice", 3},
		},
	})

	wb, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer wb.Close()

	table, err := wb.Table("res.partner")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "qty"}, table.Columns)
	assert.Equal(t, "integer", table.Types["qty"])
	assert.Equal(t, "Alice", table.Cell(0, "name"))
	assert.Equal(t, "3", table.Cell(0, "qty"))
}

func TestSheetsMatching(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"res.partner": {{"id"}},
		"Notes":       {{"text"}},
	})

	wb, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer wb.Close()

	matches := wb.SheetsMatching(regexp.MustCompile(`^(?P<model>[a-z][\w.]+)$`))
	require.Len(t, matches, 1)
	assert.Equal(t, "res.partner", matches["res.partner"][1])
}
