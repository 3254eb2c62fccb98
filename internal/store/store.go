package store

import "database/sql"

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. Stores
// are constructed on a *sql.DB; WithTx rebinds them to a transaction so the
// mission engine can group multi-step writes atomically.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
