package dataset

import "strings"

// =============================================================================
// CHUNKING
// =============================================================================

// Chunk splits the table into batches of at most size rows for upload. A
// batch may overflow its size: rows with a blank "id" cell are one2many
// continuation rows and must stay in the batch of their parent record, so a
// new batch only ever starts on a row carrying its own id.
func Chunk(t *Table, size int) []*Table {
	if size <= 0 || t.Len() <= size {
		return []*Table{t}
	}

	idIdx := t.ColumnIndex("id")
	var chunks []*Table
	current := &Table{Columns: t.Columns, Types: t.Types, DecimalComma: t.DecimalComma}

	for _, row := range t.Rows {
		hasID := true
		if idIdx >= 0 {
			hasID = idIdx < len(row) && strings.TrimSpace(row[idIdx]) != ""
		}
		if current.Len() >= size && hasID {
			chunks = append(chunks, current)
			current = &Table{Columns: t.Columns, Types: t.Types, DecimalComma: t.DecimalComma}
		}
		current.Rows = append(current.Rows, row)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
