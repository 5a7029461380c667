// Package repository holds storage contracts shared by the storage backends.
package repository

import (
	"context"
	"errors"
)

// ErrDocumentNotFound is returned when no document exists at the requested path.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore reads and writes whole documents addressed by a logical path,
// e.g. "icarros/found_results.json". WriteDocument replaces the document atomically.
type DocumentStore interface {
	ReadDocument(ctx context.Context, path string) ([]byte, error)
	WriteDocument(ctx context.Context, path string, body []byte) error
}
