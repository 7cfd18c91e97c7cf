// Package pg backs the twofactor and audit storage ports with PostgreSQL
// through the pgx stdlib driver.
package pg

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store wraps one shared connection pool for both ports.
type Store struct {
	db *sql.DB
}

// Open connects to the given DSN with tuned pool defaults.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle. Used by tests with sqlmock.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for readiness probes and migrations.
func (s *Store) DB() *sql.DB { return s.db }
