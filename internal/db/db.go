package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open opens a database connection without pinging.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

// Connect returns an open and verified database connection.
func Connect(dsn string) (*sql.DB, error) {
	conn, err := Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return conn, nil
}
