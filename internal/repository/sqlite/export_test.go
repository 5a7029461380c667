package sqlite

import (
	"database/sql"
	"io"
	"log/slog"
)

// NewForTest wraps an existing connection, skipping open and migration.
func NewForTest(db *sql.DB) *Repository {
	return &Repository{db: db, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// DB exposes the underlying handle to tests.
func (r *Repository) DB() *sql.DB {
	return r.db
}
