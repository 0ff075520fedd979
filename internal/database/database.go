package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver (tests)
)

// New opens a database connection and ensures the schema exists.
// Queries across the codebase use $N placeholders and RETURNING,
// which both supported drivers understand.
func New(driverName, dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driverName == "sqlite3" {
		// An in-memory SQLite database exists per connection; the pool
		// must not open a second one.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driverName == "sqlite3" {
		// SQLite leaves foreign keys off unless asked; Postgres always
		// enforces them
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := createTables(db, driverName); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewPostgresConnection opens a Postgres connection using the given URL
func NewPostgresConnection(databaseURL string) (*sql.DB, error) {
	return New("postgres", databaseURL)
}

func createTables(db *sql.DB, driverName string) error {
	// Simplified for brevity, ideally use migrations
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		subject TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		nickname TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		avatar_url TEXT,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS channels (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS memberships (
		id BIGSERIAL PRIMARY KEY,
		channel_id BIGINT NOT NULL REFERENCES channels(id),
		user_id BIGINT NOT NULL REFERENCES users(id),
		role TEXT NOT NULL DEFAULT 'member',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (channel_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS groups (
		id BIGSERIAL PRIMARY KEY,
		channel_id BIGINT NOT NULL REFERENCES channels(id),
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS group_members (
		id BIGSERIAL PRIMARY KEY,
		group_id BIGINT NOT NULL REFERENCES groups(id),
		user_id BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (group_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS channel_join_requests (
		id BIGSERIAL PRIMARY KEY,
		channel_id BIGINT NOT NULL REFERENCES channels(id),
		requestor_id BIGINT NOT NULL REFERENCES users(id),
		comments TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (channel_id, requestor_id)
	);

	CREATE TABLE IF NOT EXISTS group_join_requests (
		id BIGSERIAL PRIMARY KEY,
		group_id BIGINT NOT NULL REFERENCES groups(id),
		requestor_id BIGINT NOT NULL REFERENCES users(id),
		comments TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (group_id, requestor_id)
	);
	`

	if driverName == "sqlite3" {
		// Adjust for SQLite syntax
		schema = strings.ReplaceAll(schema, "BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT")
		schema = strings.ReplaceAll(schema, "TIMESTAMP", "DATETIME")
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}
