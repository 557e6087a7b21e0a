package db

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// Open initialises the SQLite handle backing all persistence. The pool is
// capped at a single connection so every statement is serialised, which is
// the concurrency model the rest of the store assumes. A 5 second busy
// timeout and foreign key enforcement are configured through the DSN.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return conn, nil
}

// ApplySchema executes the DDL file at schemaPath against the handle. The
// schema uses IF NOT EXISTS guards so re-applying on every boot is safe.
func ApplySchema(conn *sql.DB, schemaPath string) error {
	ddl, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema %s: %w", schemaPath, err)
	}

	if _, err := conn.Exec(string(ddl)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}
