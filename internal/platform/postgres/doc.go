// Package postgres implements the store interfaces over PostgreSQL using
// database/sql with the pgx driver. Each store maps rows to domain entities
// and translates driver errors into the store package's sentinel errors.
package postgres
