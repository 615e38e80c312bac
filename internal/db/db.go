package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Config struct {
	// Name identifies the shared in-memory database. Handles opened with the
	// same name see the same data; an empty name gets a fresh database.
	Name string
}

// DSN returns the in-memory SQLite connection string for name.
func DSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
}

// Open opens the in-memory SQLite database with foreign keys on. The pool is
// capped to one connection so transactions serialize.
func Open(cfg Config) (*sql.DB, error) {
	name := cfg.Name
	if name == "" {
		name = "condopapers-" + uuid.NewString()
	}
	conn, err := sql.Open("sqlite", DSN(name))
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
