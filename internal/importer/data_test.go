package importer_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godoo/godoo-rpc/internal/dataset"
	"github.com/godoo/godoo-rpc/internal/importer"
	"github.com/godoo/godoo-rpc/internal/odoo"
	"github.com/godoo/godoo-rpc/internal/odoo/odootest"
)

func newImporter(t *testing.T, srv *odootest.Server) *importer.Client {
	t.Helper()
	api, err := odoo.NewClient(&odoo.ClientConfig{
		URL:      srv.URL,
		Database: "test",
		Username: "admin",
		Password: "secret",
	})
	require.NoError(t, err)
	require.NoError(t, api.Login(context.Background()))
	return importer.New(api, nil)
}

// handleBaseImport wires a well-behaved base_import.import pair of handlers:
// create remembers the CSV payload, do reports one created id per unique
// external id in that payload.
func handleBaseImport(srv *odootest.Server, payloads *[]string) {
	srv.Handle("base_import.import", "create", func(args []any, kw map[string]any) (any, error) {
		values, _ := args[0].(map[string]any)
		file, _ := values["file"].(string)
		*payloads = append(*payloads, file)
		return len(*payloads), nil
	})
	srv.Handle("base_import.import", "do", func(args []any, kw map[string]any) (any, error) {
		last := (*payloads)[len(*payloads)-1]
		ids := []any{}
		for i, line := range strings.Split(strings.TrimSpace(last), "\n") {
			if i == 0 || strings.HasPrefix(line, ",") || line == "" {
				continue
			}
			ids = append(ids, float64(100+i))
		}
		return map[string]any{"ids": ids, "messages": []any{}}, nil
	})
}

func TestUploadBatchesWithContinuationRows(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	var payloads []string
	handleBaseImport(srv, &payloads)

	table := dataset.NewTable([]string{"id", "name"})
	table.AppendRow([]string{"x.p1", "a"})
	table.AppendRow([]string{"x.p2", "b"})
	table.AppendRow([]string{"", "b line"})
	table.AppendRow([]string{"x.p3", "c"})

	client := newImporter(t, srv)
	err := client.Data.Upload(context.Background(), table, "res.partner", importer.UploadOptions{
		BatchSize: 2,
		Source:    "test",
	})
	require.NoError(t, err)

	// continuation row overflows batch one
	require.Len(t, payloads, 2)
	assert.Equal(t, "id,name\nx.p1,a\nx.p2,b\n,b line\n", payloads[0])
	assert.Equal(t, "id,name\nx.p3,c\n", payloads[1])

	creates := srv.CallsTo("base_import.import", "create")
	require.Len(t, creates, 2)
	values, _ := creates[0].Args[0].(map[string]any)
	assert.Equal(t, "res.partner", values["res_model"])
	assert.Equal(t, "text/csv", values["file_type"])

	dos := srv.CallsTo("base_import.import", "do")
	require.Len(t, dos, 2)
	opts, _ := dos[0].Args[3].(map[string]any)
	assert.Equal(t, ",", opts["separator"])
	assert.Equal(t, true, opts["headers"])
}

func TestUploadDecimalCommaDialectSetsFloatSeparators(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	var payloads []string
	handleBaseImport(srv, &payloads)

	table := dataset.NewTable([]string{"id", "amount"})
	table.AppendRow([]string{"x.p1", "1,5"})
	table.DecimalComma = true

	client := newImporter(t, srv)
	err := client.Data.Upload(context.Background(), table, "res.partner", importer.UploadOptions{})
	require.NoError(t, err)

	dos := srv.CallsTo("base_import.import", "do")
	require.Len(t, dos, 1)
	opts, _ := dos[0].Args[3].(map[string]any)
	assert.Equal(t, ",", opts["float_decimal_separator"])
	assert.Equal(t, ".", opts["float_thousand_separator"])
}

func TestUploadRejectsDuplicateIDs(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()

	table := dataset.NewTable([]string{"id"})
	table.AppendRow([]string{"x.p1"})
	table.AppendRow([]string{"x.p1"})

	client := newImporter(t, srv)
	err := client.Data.Upload(context.Background(), table, "res.partner", importer.UploadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x.p1")
	assert.Empty(t, srv.CallsTo("base_import.import", "create"))
}

func TestUploadEmptyTableIsNoop(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()

	client := newImporter(t, srv)
	err := client.Data.Upload(context.Background(), dataset.NewTable([]string{"id"}), "res.partner", importer.UploadOptions{})
	require.NoError(t, err)
	assert.Empty(t, srv.Calls())
}

func TestUploadSkipExistingDropsKnownIDs(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	var payloads []string
	handleBaseImport(srv, &payloads)
	srv.Handle("ir.model.data", "search_read", func(args []any, kw map[string]any) (any, error) {
		return []any{map[string]any{"module": "x", "name": "p1"}}, nil
	})

	table := dataset.NewTable([]string{"id", "name"})
	table.AppendRow([]string{"x.p1", "a"})
	table.AppendRow([]string{"", "a line"})
	table.AppendRow([]string{"x.p2", "b"})

	client := newImporter(t, srv)
	err := client.Data.Upload(context.Background(), table, "res.partner", importer.UploadOptions{
		SkipExisting: true,
	})
	require.NoError(t, err)

	// x.p1 and its continuation row are gone
	require.Len(t, payloads, 1)
	assert.Equal(t, "id,name\nx.p2,b\n", payloads[0])
}

func TestUploadFailsOnImportMessages(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	srv.Handle("base_import.import", "create", func(args []any, kw map[string]any) (any, error) {
		return 1, nil
	})
	srv.Handle("base_import.import", "do", func(args []any, kw map[string]any) (any, error) {
		return map[string]any{
			"ids": false,
			"messages": []any{map[string]any{
				"type":    "error",
				"message": "invalid value",
				"field":   "name",
				"rows":    map[string]any{"from": 0, "to": 0},
			}},
		}, nil
	})

	table := dataset.NewTable([]string{"id", "name"})
	table.AppendRow([]string{"x.p1", "bad"})

	client := newImporter(t, srv)
	err := client.Data.Upload(context.Background(), table, "res.partner", importer.UploadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import error")
}

// legacyDriver serves one fixed partner result set so the SQL import path
// can run without a live database.
type legacyDriver struct{}

type legacyConn struct{}

type legacyStmt struct{}

type legacyRows struct{ pos int }

var legacyData = [][]driver.Value{
	{"x.p1", "Alice"},
	{"x.p2", "Bob"},
}

func (legacyDriver) Open(name string) (driver.Conn, error) { return legacyConn{}, nil }

func (legacyConn) Prepare(query string) (driver.Stmt, error) { return legacyStmt{}, nil }
func (legacyConn) Close() error                              { return nil }
func (legacyConn) Begin() (driver.Tx, error)                 { return nil, driver.ErrSkip }

func (legacyStmt) Close() error  { return nil }
func (legacyStmt) NumInput() int { return 0 }
func (legacyStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, driver.ErrSkip
}
func (legacyStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &legacyRows{}, nil
}

func (r *legacyRows) Columns() []string { return []string{"id", "name"} }
func (r *legacyRows) Close() error      { return nil }
func (r *legacyRows) Next(dest []driver.Value) error {
	if r.pos >= len(legacyData) {
		return io.EOF
	}
	copy(dest, legacyData[r.pos])
	r.pos++
	return nil
}

func init() {
	sql.Register("legacy", legacyDriver{})
}

func TestUploadSQLFeedsQueryResult(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	var payloads []string
	handleBaseImport(srv, &payloads)

	db, err := sql.Open("legacy", "")
	require.NoError(t, err)
	defer db.Close()

	client := newImporter(t, srv)
	err = client.Data.UploadSQL(context.Background(), db,
		"SELECT id, name FROM partners", "res.partner", importer.UploadOptions{})
	require.NoError(t, err)

	require.Len(t, payloads, 1)
	assert.Equal(t, "id,name\nx.p1,Alice\nx.p2,Bob\n", payloads[0])

	creates := srv.CallsTo("base_import.import", "create")
	require.Len(t, creates, 1)
	values, _ := creates[0].Args[0].(map[string]any)
	assert.Equal(t, "res.partner", values["res_model"])
	fileName, _ := values["file_name"].(string)
	assert.Contains(t, fileName, "res.partner-sql")
}

func TestUploadAppliesLanguageColumns(t *testing.T) {
	srv := odootest.New()
	defer srv.Close()
	var payloads []string
	handleBaseImport(srv, &payloads)
	srv.Handle("ir.model.data", "search_read", func(args []any, kw map[string]any) (any, error) {
		return []any{map[string]any{"model": "res.partner", "res_id": float64(11)}}, nil
	})
	srv.Handle("res.partner", "write", func(args []any, kw map[string]any) (any, error) {
		return true, nil
	})

	table := dataset.NewTable([]string{"id", "name", "name:lang:de_DE"})
	table.AppendRow([]string{"x.p1", "Red", "Rot"})

	client := newImporter(t, srv)
	err := client.Data.Upload(context.Background(), table, "res.partner", importer.UploadOptions{})
	require.NoError(t, err)

	// the language column is stripped from the upload payload
	require.Len(t, payloads, 1)
	assert.Equal(t, "id,name\nx.p1,Red\n", payloads[0])

	writes := srv.CallsTo("res.partner", "write")
	require.Len(t, writes, 1)
	assert.Equal(t, "de_DE", odootest.ContextLang(writes[0].KW))
	values, _ := writes[0].Args[1].(map[string]any)
	assert.Equal(t, "Rot", values["name"])
}
