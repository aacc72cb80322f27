// Package postgres provides PostgreSQL implementations of the store
// interfaces. Connections go through the pgx stdlib driver; queries use
// database/sql so that a store can run on either *sql.DB or *sql.Tx.
package postgres
