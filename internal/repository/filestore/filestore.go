// Package filestore keeps documents as plain files under a root directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/Houeta/car-watch/internal/repository"
	"github.com/spf13/afero"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store maps logical document paths to files of an afero filesystem.
type Store struct {
	fs  afero.Fs
	log *slog.Logger
}

// New returns a Store rooted at dir on the OS filesystem.
func New(log *slog.Logger, dir string) *Store {
	return NewWithFs(log, afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// NewWithFs returns a Store on top of an arbitrary filesystem.
func NewWithFs(log *slog.Logger, fsys afero.Fs) *Store {
	return &Store{fs: fsys, log: log}
}

// ReadDocument returns the file content at name or repository.ErrDocumentNotFound.
func (s *Store) ReadDocument(_ context.Context, name string) ([]byte, error) {
	const opn = "repository.filestore.ReadDocument"

	body, err := afero.ReadFile(s.fs, clean(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("%s: failed to read %s: %w", opn, name, err)
	}

	return body, nil
}

// WriteDocument writes body to a temporary sibling file and renames it over name,
// so readers never observe a partially written document.
func (s *Store) WriteDocument(ctx context.Context, name string, body []byte) error {
	const opn = "repository.filestore.WriteDocument"
	name = clean(name)

	if err := s.fs.MkdirAll(path.Dir(name), dirPerm); err != nil {
		return fmt.Errorf("%s: failed to create directory for %s: %w", opn, name, err)
	}

	tmp, err := afero.TempFile(s.fs, path.Dir(name), path.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: failed to create temp file: %w", opn, err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%s: failed to write %s: %w", opn, tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%s: failed to close %s: %w", opn, tmpName, err)
	}
	if err = s.fs.Chmod(tmpName, filePerm); err != nil {
		s.log.WarnContext(ctx, "failed to set document permissions", "op", opn, "path", tmpName, "error", err)
	}

	if err = s.fs.Rename(tmpName, name); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("%s: failed to replace %s: %w", opn, name, err)
	}

	s.log.DebugContext(ctx, "Document written", "op", opn, "path", name, "bytes", len(body))

	return nil
}

// clean turns a logical path such as "/icarros/found_results.json" into a relative one.
func clean(name string) string {
	cleaned := path.Clean("/" + name)
	return cleaned[1:]
}
