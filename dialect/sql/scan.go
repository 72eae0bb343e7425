package sql

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/zaMmer83/recurse-delete/dialect"
)

// QueryValues runs the given SELECT statement and returns the raw column
// values of every row. Text values returned as []byte by the driver are
// converted to string so they can be compared and used as map keys.
func QueryValues(ctx context.Context, ex dialect.ExecQuerier, stmt sq.Sqlizer) ([][]any, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: build query: %w", err)
	}
	rows := &Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	var values [][]any
	for rows.Next() {
		row := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		for i, v := range row {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			}
		}
		values = append(values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return values, nil
}

// ExecAffected runs the given statement and returns the number of affected rows.
func ExecAffected(ctx context.Context, ex dialect.ExecQuerier, stmt sq.Sqlizer) (int64, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: build statement: %w", err)
	}
	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	// Not every driver reports affected rows.
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
