// Package postgres backs taskstore.Store and pushstore.Store with
// Postgres-persisted JSON documents, grounded on
// shared/config/database.go's lib/pq-backed IConfig implementation. Where
// the teacher opens a fresh *sql.DB per query, this package holds one
// pool for the process's lifetime, letting database/sql do the
// connection reuse it was built for.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB is a Postgres connection pool shared by TaskStore and
// PushConfigStore.
type DB struct {
	sql *sql.DB
}

// Open connects to connStr and ensures the tables this package needs
// exist, creating them if this is a fresh database.
func Open(ctx context.Context, connStr string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	db := &DB{sql: sqlDB}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS a2a_tasks (
			id TEXT PRIMARY KEY,
			data JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS a2a_push_configs (
			task_id TEXT NOT NULL,
			config_id TEXT NOT NULL,
			data JSONB NOT NULL,
			PRIMARY KEY (task_id, config_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.sql.Close()
}
