// Package dialect defines how the cascade resolver reaches a database.
//
// Every statement goes through ExecQuerier. Both a Driver and the Tx it opens
// implement it, so a cascade step runs the same way in a transaction opened
// by the resolver and in one handed in by the caller.
//
// Dialect names are MySQL, SQLite and Postgres. They are also the
// database/sql driver names registered by github.com/go-sql-driver/mysql,
// modernc.org/sqlite and github.com/lib/pq.
//
// The database/sql implementation lives in dialect/sql.
package dialect
