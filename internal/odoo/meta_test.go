package odoo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godoo/godoo-rpc/internal/odoo"
	"github.com/godoo/godoo-rpc/internal/odoo/odootest"
)

// wires up a partner model with a company relation for traversal tests.
func relationalFixture(t *testing.T) (*odootest.Server, *odoo.Client) {
	t.Helper()
	srv := odootest.New()
	t.Cleanup(srv.Close)

	srv.Handle("res.partner", "fields_get", func(args []any, kw map[string]any) (any, error) {
		return map[string]any{
			"name":       map[string]any{"type": "char", "string": "Name"},
			"company_id": map[string]any{"type": "many2one", "string": "Company", "relation": "res.company"},
		}, nil
	})
	srv.Handle("res.company", "fields_get", func(args []any, kw map[string]any) (any, error) {
		return map[string]any{
			"name": map[string]any{"type": "char", "string": "Name"},
		}, nil
	})
	srv.Handle("res.partner", "read", func(args []any, kw map[string]any) (any, error) {
		return []any{map[string]any{
			"id":         float64(10),
			"name":       "Alice",
			"company_id": []any{float64(3), "ACME"},
		}}, nil
	})
	srv.Handle("res.company", "read", func(args []any, kw map[string]any) (any, error) {
		return []any{map[string]any{"id": float64(3), "name": "ACME"}}, nil
	})

	client := newTestClient(t, srv)
	require.NoError(t, client.Login(context.Background()))
	return srv, client
}

func TestMappedValueTraversesRelations(t *testing.T) {
	_, client := relationalFixture(t)

	value, err := client.MappedValue(context.Background(), "res.partner", 10, "company_id.name")
	require.NoError(t, err)
	assert.Equal(t, "ACME", value)
}

func TestMappedValueSingleHop(t *testing.T) {
	_, client := relationalFixture(t)

	value, err := client.MappedValue(context.Background(), "res.partner", 10, "name")
	require.NoError(t, err)
	assert.Equal(t, "Alice", value)
}

func TestFieldMetaAtFollowsDots(t *testing.T) {
	_, client := relationalFixture(t)

	meta, err := client.FieldMetaAt(context.Background(), "res.partner", "company_id.name")
	require.NoError(t, err)
	assert.Equal(t, "char", meta.Type)

	meta, err = client.FieldMetaAt(context.Background(), "res.partner", "company_id")
	require.NoError(t, err)
	assert.Equal(t, "res.company", meta.Relation)
	assert.True(t, meta.IsRelational())
}

func TestRefResolvesExternalID(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	srv.Handle("ir.model.data", "search_read", func(args []any, kw map[string]any) (any, error) {
		return []any{map[string]any{"model": "res.partner", "res_id": float64(42)}}, nil
	})

	client := newTestClient(t, srv)
	require.NoError(t, client.Login(context.Background()))

	ref, err := client.Ref(context.Background(), "base.main_partner")
	require.NoError(t, err)
	assert.Equal(t, "res.partner", ref.Model)
	assert.Equal(t, int64(42), ref.ID)
}

func TestRefNotFound(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	srv.Handle("ir.model.data", "search_read", func(args []any, kw map[string]any) (any, error) {
		return []any{}, nil
	})

	client := newTestClient(t, srv)
	require.NoError(t, client.Login(context.Background()))

	_, err := client.Ref(context.Background(), "base.gone")
	require.Error(t, err)

	var rpcErr *odoo.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, odoo.CodeNotFound, rpcErr.Code)
}

func TestWithLangSetsContext(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	srv.Handle("res.partner", "write", func(args []any, kw map[string]any) (any, error) {
		return true, nil
	})

	client := newTestClient(t, srv)
	require.NoError(t, client.Login(context.Background()))

	model := client.Model("res.partner").WithLang("de_DE")
	require.NoError(t, model.Write(context.Background(), []int64{1}, map[string]any{"name": "Alfred"}))

	calls := srv.CallsTo("res.partner", "write")
	require.Len(t, calls, 1)
	assert.Equal(t, "de_DE", odootest.ContextLang(calls[0].KW))
}
