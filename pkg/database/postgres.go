// Package database opens the optional durable backing store. The core
// runs perfectly well without it: every Store interface in this module
// has an in-memory default, and a Postgres connection is only opened
// when DATABASE_URL is set.
package database

import (
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
)

// Connect opens a connection pool against dsn and verifies it with a
// ping before returning.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
