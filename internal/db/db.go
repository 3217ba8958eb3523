// Package db persists per-cell hits of DT events in SQLite.
package db

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DB is the hits database, a SQLite connection with its schema migrations.
type DB struct {
	*sql.DB
	log *zap.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for migrations and imports.
func WithLogger(l *zap.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.log = l
		}
	}
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// OpenDB opens the database at path and applies the connection pragmas
// without touching the schema.
func OpenDB(path string, opts ...Option) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps the pragmas and in-memory databases shared.
	sqlDB.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	db := &DB{DB: sqlDB, log: zap.NewNop()}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// NewDB opens the database at path and migrates it to the latest schema.
func NewDB(path string, opts ...Option) (*DB, error) {
	db, err := OpenDB(path, opts...)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
