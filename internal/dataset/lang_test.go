package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripLanguage(t *testing.T) {
	table := NewTable([]string{"id", "name", "name:lang:de_DE"})
	table.AppendRow([]string{"x.p1", "Red", "Rot"})

	stripped := StripLanguage(table)
	assert.Equal(t, []string{"id", "name"}, stripped.Columns)
	assert.Equal(t, "Red", stripped.Cell(0, "name"))
}

func TestLanguagePairsPlainColumn(t *testing.T) {
	table := NewTable([]string{"id", "name", "name:lang:de_DE"})

	pairs := LanguagePairs(table)
	require.Len(t, pairs, 1)
	assert.Equal(t, "id", pairs[0].IDColumn)
	assert.Equal(t, "name", pairs[0].FieldName)
	assert.Equal(t, "de_DE", pairs[0].Lang)
	assert.Equal(t, "name:lang:de_DE", pairs[0].ValueColumn)
}

func TestLanguagePairsNestedColumn(t *testing.T) {
	table := NewTable([]string{"id", "child_ids/id", "child_ids/name", "child_ids/name:lang:fr_FR"})

	pairs := LanguagePairs(table)
	require.Len(t, pairs, 1)
	assert.Equal(t, "child_ids/id", pairs[0].IDColumn)
	assert.Equal(t, "name", pairs[0].FieldName)
	assert.Equal(t, "fr_FR", pairs[0].Lang)
}

func TestLanguagePairsNestedWithoutIDColumnFallsBack(t *testing.T) {
	table := NewTable([]string{"id", "child_ids/name:lang:fr_FR"})

	pairs := LanguagePairs(table)
	require.Len(t, pairs, 1)
	assert.Equal(t, "id", pairs[0].IDColumn)
	assert.Equal(t, "child_ids.name", pairs[0].FieldName)
}

func TestLanguagePairsDeepNesting(t *testing.T) {
	table := NewTable([]string{"id", "line_ids/id", "line_ids/product_id/name:lang:it_IT"})

	pairs := LanguagePairs(table)
	require.Len(t, pairs, 1)
	assert.Equal(t, "line_ids/id", pairs[0].IDColumn)
	assert.Equal(t, "product_id.name", pairs[0].FieldName)
}
