package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/zaMmer83/recurse-delete/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		want    string
	}{
		{"Postgres", dialect.Postgres, dialect.Postgres},
		{"MySQL", dialect.MySQL, dialect.MySQL},
		{"SQLite", dialect.SQLite, dialect.SQLite},
		{"Wrapped", "sqlite3-traced", dialect.SQLite},
		{"Unknown", "oracle", "oracle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.dialect, db)
			require.NotNil(t, drv)
			assert.Equal(t, tt.want, drv.Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)
	ctx := context.Background()

	t.Run("with_args", func(t *testing.T) {
		mock.ExpectQuery("SELECT id FROM line_items WHERE order_id = $1").
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))

		rows := &Rows{}
		require.NoError(t, drv.Query(ctx, "SELECT id FROM line_items WHERE order_id = $1", []any{5}, rows))
		var ids []int64
		for rows.Next() {
			var id int64
			require.NoError(t, rows.Scan(&id))
			ids = append(ids, id)
		}
		require.NoError(t, rows.Close())
		assert.Equal(t, []int64{11, 12}, ids)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error_is_wrapped", func(t *testing.T) {
		cause := errors.New("relation \"line_items\" does not exist")
		mock.ExpectQuery("SELECT id FROM line_items").WillReturnError(cause)

		err := drv.Query(ctx, "SELECT id FROM line_items", []any{}, &Rows{})
		require.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "dialect/sql: query:")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_destination", func(t *testing.T) {
		var rows []any
		err := drv.Query(ctx, "SELECT 1", []any{}, &rows)
		require.EqualError(t, err, "dialect/sql: invalid type *[]interface {}. expect *sql.Rows")
	})

	t.Run("invalid_args", func(t *testing.T) {
		err := drv.Query(ctx, "SELECT 1", map[string]any{}, &Rows{})
		require.EqualError(t, err, "dialect/sql: invalid type map[string]interface {}. expect []any for args")
	})
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)
	ctx := context.Background()

	t.Run("discard_result", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM orders WHERE id IN (?,?)").
			WithArgs(1, 2).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, drv.Exec(ctx, "DELETE FROM orders WHERE id IN (?,?)", []any{1, 2}, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("capture_result", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM orders").
			WillReturnResult(sqlmock.NewResult(0, 7))

		var res sql.Result
		require.NoError(t, drv.Exec(ctx, "DELETE FROM orders", []any{}, &res))
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error_is_wrapped", func(t *testing.T) {
		cause := errors.New("Error 1451: Cannot delete or update a parent row")
		mock.ExpectExec("DELETE FROM orders").WillReturnError(cause)

		err := drv.Exec(ctx, "DELETE FROM orders", []any{}, nil)
		require.ErrorIs(t, err, cause)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_destination", func(t *testing.T) {
		var n int64
		err := drv.Exec(ctx, "DELETE FROM orders", []any{}, &n)
		require.EqualError(t, err, "dialect/sql: invalid type *int64. expect *sql.Result")
	})
}

func TestDriverTx(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLite, db)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM comments WHERE post_id IN (?)").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
		mock.ExpectExec("DELETE FROM comments WHERE id IN (?)").
			WithArgs(9).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		rows := &Rows{}
		require.NoError(t, tx.Query(ctx, "SELECT id FROM comments WHERE post_id IN (?)", []any{3}, rows))
		require.NoError(t, rows.Close())
		require.NoError(t, tx.Exec(ctx, "DELETE FROM comments WHERE id IN (?)", []any{9}, nil))
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM posts WHERE id IN (?)").
			WithArgs(3).
			WillReturnError(errors.New("FOREIGN KEY constraint failed"))
		mock.ExpectRollback()

		tx, err := drv.Tx(ctx)
		require.NoError(t, err)
		require.Error(t, tx.Exec(ctx, "DELETE FROM posts WHERE id IN (?)", []any{3}, nil))
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin_with_options", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectCommit()

		tx, err := drv.BeginTx(ctx, &TxOptions{Isolation: sql.LevelSerializable})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin_error", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

		_, err := drv.Tx(ctx)
		require.EqualError(t, err, "database is locked")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDriverClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	drv := OpenDB(dialect.SQLite, db)
	require.NoError(t, drv.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContextCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock.ExpectQuery("SELECT").WillReturnError(context.Canceled)
	err = drv.Query(ctx, "SELECT id FROM orders", []any{}, &Rows{})
	assert.Error(t, err)
}
