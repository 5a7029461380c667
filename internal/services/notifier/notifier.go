// Package notifier turns new ads into a digest and fans it out to the configured sinks.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Houeta/car-watch/internal/models"
	"go.uber.org/multierr"
)

// Notifier is an outbound channel such as email or a chat bot.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n models.Notification) error
}

// Projector picks the display fields of an ad.
type Projector interface {
	Project(record models.AdRecord) models.DigestEntry
}

// Dispatcher delivers digests to every sink independently.
type Dispatcher struct {
	log   *slog.Logger
	sinks []Notifier
}

// NewDispatcher returns a Dispatcher for sinks, skipping nil ones.
func NewDispatcher(log *slog.Logger, sinks ...Notifier) *Dispatcher {
	d := &Dispatcher{log: log}
	for _, s := range sinks {
		if s != nil {
			d.sinks = append(d.sinks, s)
		}
	}
	return d
}

// Dispatch sends the digest of newAds to all sinks in order and returns how many accepted it.
// Nothing is sent when newAds is empty. A failing sink does not stop the others;
// all failures are returned combined.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	search models.Search,
	projector Projector,
	newAds models.AdSet,
) (int, error) {
	const opn = "notifier.Dispatch"
	log := d.log.With("op", opn, "source", search.Source, "model", search.Model)

	if len(newAds) == 0 {
		return 0, nil
	}

	text, err := BuildDigest(newAds, projector)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opn, err)
	}

	msg := models.Notification{
		Source:     search.Source,
		Model:      search.Model,
		Text:       text,
		Recipients: search.Recipients,
	}

	var (
		delivered int
		errs      error
	)
	for _, sink := range d.sinks {
		if err = sink.Send(ctx, msg); err != nil {
			log.ErrorContext(ctx, "Failed to deliver notification", "sink", sink.Name(), "error", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		delivered++
		log.InfoContext(ctx, "Notification delivered", "sink", sink.Name(), "ads", len(newAds))
	}

	return delivered, errs
}

// BuildDigest renders newAds as indented JSON keyed by ad url.
func BuildDigest(newAds models.AdSet, projector Projector) (string, error) {
	entries := make(map[string]models.DigestEntry, len(newAds))
	for _, rec := range newAds {
		entries[rec.URL] = projector.Project(rec)
	}

	out, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode digest: %w", err)
	}

	return string(out), nil
}
