package dataset

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDriver serves one fixed result set, enough to exercise the scan and
// stringify path without a live database.
type stubDriver struct{}

type stubConn struct{}

type stubRows struct {
	pos int
}

var stubData = [][]driver.Value{
	{"x.p1", "Alice", int64(3), true, nil},
	{"x.p2", "Bob", int64(0), false, 1.5},
}

func (stubDriver) Open(name string) (driver.Conn, error) { return stubConn{}, nil }

func (stubConn) Prepare(query string) (driver.Stmt, error) { return stubStmt{}, nil }
func (stubConn) Close() error                              { return nil }
func (stubConn) Begin() (driver.Tx, error)                 { return nil, driver.ErrSkip }

type stubStmt struct{}

func (stubStmt) Close() error  { return nil }
func (stubStmt) NumInput() int { return 0 }
func (stubStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, driver.ErrSkip
}
func (stubStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &stubRows{}, nil
}

func (r *stubRows) Columns() []string {
	return []string{"id", "name", "qty", "active", "price"}
}
func (r *stubRows) Close() error { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(stubData) {
		return io.EOF
	}
	copy(dest, stubData[r.pos])
	r.pos++
	return nil
}

func init() {
	sql.Register("stub", stubDriver{})
}

func TestReadSQL(t *testing.T) {
	db, err := sql.Open("stub", "")
	require.NoError(t, err)
	defer db.Close()

	table, err := ReadSQL(context.Background(), db, "SELECT * FROM partners")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "qty", "active", "price"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "3", table.Cell(0, "qty"))
	assert.Equal(t, "True", table.Cell(0, "active"))
	assert.Equal(t, "", table.Cell(0, "price"))
	assert.Equal(t, "False", table.Cell(1, "active"))
	assert.Equal(t, "1.5", table.Cell(1, "price"))
}
