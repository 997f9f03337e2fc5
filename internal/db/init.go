package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// The UNIQUE constraint on username is the authoritative uniqueness
// guarantee; application-level pre-checks are advisory only.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    username TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    recovery_mail TEXT NOT NULL DEFAULT '',
    active_day TEXT NOT NULL DEFAULT ''
);
`

func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
