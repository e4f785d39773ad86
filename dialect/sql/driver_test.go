package sql

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/norm/dialect"
)

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db)
	assert.Equal(t, dialect.MySQL, drv.Dialect())

	q := "INSERT INTO Person (name) VALUES (?);"
	mock.ExpectExec(regexp.QuoteMeta(q)).
		WithArgs("Ann").
		WillReturnResult(sqlmock.NewResult(7, 1))
	var res sql.Result
	require.NoError(t, drv.Exec(context.Background(), q, []any{"Ann"}, &res))
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS Person;")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, drv.Exec(context.Background(), "DROP TABLE IF EXISTS Person;", []any{}, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverExecErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db)

	err = drv.Exec(context.Background(), "SELECT 1;", "not a slice", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect []any for args")

	err = drv.Exec(context.Background(), "SELECT 1;", []any{}, new(int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect *sql.Result")

	boom := errors.New("boom")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM Person;")).WillReturnError(boom)
	err = drv.Exec(context.Background(), "DELETE FROM Person;", []any{}, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "dialect/sql: exec")
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db)

	q := "SELECT Person.id, Person.name FROM Person WHERE Person.id = ?;"
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Ann"))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), q, []any{int64(1)}, rows))
	defer rows.Close()
	require.True(t, rows.Next())
	var (
		id   int64
		name string
	)
	require.NoError(t, rows.Scan(&id, &name))
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "Ann", name)
	assert.False(t, rows.Next())

	err = drv.Query(context.Background(), q, []any{}, new(int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect *sql.Rows")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverPingClose(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db)
	mock.ExpectPing()
	require.NoError(t, drv.Ping(context.Background()))
	mock.ExpectClose()
	require.NoError(t, drv.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
