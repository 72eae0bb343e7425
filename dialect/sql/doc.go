// Package sql implements dialect.Driver on top of database/sql and provides
// the statement helpers used by the cascade resolver.
//
// # Drivers
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://localhost/shop?sslmode=disable")
//	drv := sql.OpenDB(dialect.SQLite, db)
//
// The dialect name doubles as the database/sql driver name. The package links
// lib/pq ("postgres"), go-sql-driver/mysql ("mysql") and modernc.org/sqlite
// ("sqlite").
//
// StatsDriver and DebugDriver wrap any dialect.Driver to count statements or
// log them through zap.
//
// # Statements
//
// Statements are built with squirrel. Builder picks the placeholder format of
// a dialect and In renders identifier-set membership:
//
//	b := sql.Builder(dialect.Postgres)
//	b.Delete("comments").Where(sql.In(dialect.Postgres, "id", ids))
//	// DELETE FROM comments WHERE id = ANY($1)
//
//	b = sql.Builder(dialect.MySQL)
//	b.Delete("comments").Where(sql.In(dialect.MySQL, "id", ids))
//	// DELETE FROM comments WHERE id IN (?,?,?)
//
// QueryValues and ExecAffected run a squirrel statement through any
// dialect.ExecQuerier.
//
// # Errors
//
// IsConstraintError and IsForeignKeyConstraintError classify driver errors of
// all three databases.
package sql
