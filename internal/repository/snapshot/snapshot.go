// Package snapshot keeps the durable record of ads already seen per source.
//
// Each source owns one JSON document. Searches without a model use the
// document as a flat id -> record object; searches with a model keep their
// ads under the model name, so several models can share one source document.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Houeta/car-watch/internal/models"
	"github.com/Houeta/car-watch/internal/repository"
)

// ErrMixedLayout is wrapped by the PersistenceError returned when a search with a model
// addresses a flat document, or a search without a model addresses per-model sections.
var ErrMixedLayout = errors.New("document mixes flat ads and model sections")

// DefaultPathTemplate places each source document at "<source>/found_results.json".
const DefaultPathTemplate = "{source}/found_results.json"

// Repository implements FindLatest, DiffFromPersistent and Merge on a DocumentStore.
// It does not serialize concurrent callers; the checker holds a per-source lock.
type Repository struct {
	log      *slog.Logger
	docs     repository.DocumentStore
	template string
}

// NewRepository returns a snapshot repository. An empty template selects DefaultPathTemplate.
func NewRepository(log *slog.Logger, docs repository.DocumentStore, template string) *Repository {
	if template == "" {
		template = DefaultPathTemplate
	}
	return &Repository{log: log, docs: docs, template: template}
}

// Path returns the document path used for source.
func (r *Repository) Path(source string) string {
	return strings.ReplaceAll(r.template, "{source}", source)
}

// FindLatest returns the persisted ads for key, or an empty set when nothing was stored yet.
func (r *Repository) FindLatest(ctx context.Context, key models.SnapshotKey) (models.AdSet, error) {
	doc, err := r.load(ctx, key)
	if err != nil {
		return nil, err
	}

	return doc.ads(key)
}

// DiffFromPersistent returns the ads of candidate whose ids are not yet persisted for key.
func (r *Repository) DiffFromPersistent(
	ctx context.Context,
	candidate models.AdSet,
	key models.SnapshotKey,
) (models.AdSet, error) {
	known, err := r.FindLatest(ctx, key)
	if err != nil {
		return nil, err
	}

	return models.Missing(candidate, known), nil
}

// Merge persists the union of the stored ads and candidate, candidate winning on id collision.
// Entries of other models in the same document are preserved.
func (r *Repository) Merge(ctx context.Context, candidate models.AdSet, key models.SnapshotKey) error {
	const opn = "repository.snapshot.Merge"

	doc, err := r.load(ctx, key)
	if err != nil {
		return err
	}

	known, err := doc.ads(key)
	if err != nil {
		return err
	}

	merged := models.MergeAdSets(known, candidate)
	body, err := doc.replace(key, merged)
	if err != nil {
		return &models.PersistenceError{Key: key, Op: "encode", Err: err}
	}

	if err = r.docs.WriteDocument(ctx, r.Path(key.Source), body); err != nil {
		return &models.PersistenceError{Key: key, Op: "write", Err: err}
	}

	r.log.DebugContext(ctx, "Snapshot merged",
		"op", opn, "key", key.String(), "known", len(known), "candidate", len(candidate), "total", len(merged))

	return nil
}

func (r *Repository) load(ctx context.Context, key models.SnapshotKey) (document, error) {
	body, err := r.docs.ReadDocument(ctx, r.Path(key.Source))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return document{}, nil
	}
	if err != nil {
		return nil, &models.PersistenceError{Key: key, Op: "read", Err: err}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return document{}, nil
	}

	var doc document
	if err = json.Unmarshal(body, &doc); err != nil {
		return nil, &models.PersistenceError{Key: key, Op: "decode", Err: err}
	}
	if doc == nil {
		doc = document{}
	}

	return doc, nil
}

// document is the top level object of a source file.
type document map[string]json.RawMessage

// ads decodes the ad set addressed by key. Ids are restored from the object keys.
// The document layout must match key: flat entries are ad records, model sections are not.
func (d document) ads(key models.SnapshotKey) (models.AdSet, error) {
	raw := map[string]json.RawMessage(d)
	if key.Model != "" {
		section, found := d[key.Model]
		if !found {
			for id, entry := range d {
				if isRecord(entry) {
					return nil, mixedLayout(key, id)
				}
			}
			return models.AdSet{}, nil
		}
		raw = nil
		if err := json.Unmarshal(section, &raw); err != nil {
			return nil, &models.PersistenceError{Key: key, Op: "decode", Err: fmt.Errorf("model section: %w", err)}
		}
	}

	set := make(models.AdSet, len(raw))
	for id, entry := range raw {
		if !isRecord(entry) {
			return nil, mixedLayout(key, id)
		}
		var rec models.AdRecord
		if err := json.Unmarshal(entry, &rec); err != nil {
			return nil, &models.PersistenceError{Key: key, Op: "decode", Err: fmt.Errorf("ad %s: %w", id, err)}
		}
		rec.ID = id
		set[id] = rec
	}

	return set, nil
}

// isRecord reports whether entry is an object carrying a "url" field.
func isRecord(entry json.RawMessage) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return false
	}
	_, found := fields["url"]
	return found
}

func mixedLayout(key models.SnapshotKey, entry string) error {
	return &models.PersistenceError{Key: key, Op: "decode", Err: fmt.Errorf("entry %q: %w", entry, ErrMixedLayout)}
}

// replace encodes the document with the ads of key set to ads.
func (d document) replace(key models.SnapshotKey, ads models.AdSet) ([]byte, error) {
	if key.Model == "" {
		return json.MarshalIndent(ads, "", "    ")
	}

	section, err := json.Marshal(ads)
	if err != nil {
		return nil, err
	}

	out := make(document, len(d)+1)
	for name, value := range d {
		out[name] = value
	}
	out[key.Model] = section

	return json.MarshalIndent(out, "", "    ")
}
