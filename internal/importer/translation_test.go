package importer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godoo/godoo-rpc/internal/dataset"
	"github.com/godoo/godoo-rpc/internal/odoo/odootest"
)

func TestTranslationImport(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	srv.Handle("ir.model.data", "search_read", func(args []any, kw map[string]any) (any, error) {
		return []any{map[string]any{"model": "product.template", "res_id": float64(4)}}, nil
	})
	srv.Handle("product.template", "write", func(args []any, kw map[string]any) (any, error) {
		return true, nil
	})

	table := dataset.NewTable([]string{"id", "de_DE/name", "fr_FR/name", "de_DE/description"})
	table.AppendRow([]string{"x.tmpl1", "Stuhl", "Chaise", ""})

	client := newImporter(t, srv)
	require.NoError(t, client.Translations.Import(context.Background(), table))

	writes := srv.CallsTo("product.template", "write")
	require.Len(t, writes, 2) // blank description cell is skipped

	assert.Equal(t, "de_DE", odootest.ContextLang(writes[0].KW))
	values, _ := writes[0].Args[1].(map[string]any)
	assert.Equal(t, "Stuhl", values["name"])

	assert.Equal(t, "fr_FR", odootest.ContextLang(writes[1].KW))
	values, _ = writes[1].Args[1].(map[string]any)
	assert.Equal(t, "Chaise", values["name"])
}

func TestTranslationImportNeedsIDColumn(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()

	client := newImporter(t, srv)
	err := client.Translations.Import(context.Background(), dataset.NewTable([]string{"de_DE/name"}))
	require.Error(t, err)
}

func TestTranslationImportSkipsBlankIDs(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()

	table := dataset.NewTable([]string{"id", "de_DE/name"})
	table.AppendRow([]string{"", "ignored"})

	client := newImporter(t, srv)
	require.NoError(t, client.Translations.Import(context.Background(), table))
	assert.Empty(t, srv.CallsTo("ir.model.data", "search_read"))
}
