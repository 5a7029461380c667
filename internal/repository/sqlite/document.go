package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Houeta/car-watch/internal/repository"
)

// ReadDocument returns the body stored at path or repository.ErrDocumentNotFound.
func (r *Repository) ReadDocument(ctx context.Context, path string) ([]byte, error) {
	const opn = "repository.sqlite.ReadDocument"

	var body []byte
	err := r.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE path = ?", path).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("%s: failed to read document %s: %w", opn, path, err)
	}

	return body, nil
}

// WriteDocument replaces the body stored at path in a single statement.
func (r *Repository) WriteDocument(ctx context.Context, path string, body []byte) error {
	const opn = "repository.sqlite.WriteDocument"

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO documents (path, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (path) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		path, body,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to write document %s: %w", opn, path, err)
	}

	r.log.DebugContext(ctx, "Document written", "op", opn, "path", path, "bytes", len(body))

	return nil
}
