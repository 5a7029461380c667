package checker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/Houeta/car-watch/internal/models"
	"github.com/Houeta/car-watch/internal/parser"
	"github.com/Houeta/car-watch/internal/repository"
	"github.com/Houeta/car-watch/internal/services/notifier"
	"github.com/sourcegraph/conc/pool"
)

// SnapshotStore is the durable record of seen ads.
type SnapshotStore interface {
	DiffFromPersistent(ctx context.Context, candidate models.AdSet, key models.SnapshotKey) (models.AdSet, error)
	Merge(ctx context.Context, candidate models.AdSet, key models.SnapshotKey) error
}

// Dispatcher forwards new ads to the notification sinks.
type Dispatcher interface {
	Dispatch(ctx context.Context, search models.Search, projector notifier.Projector, newAds models.AdSet) (int, error)
}

// Checker is an orchestrator that performs a full run per search:
// collect pages, diff and merge against the snapshot, notify about new ads.
type Checker struct {
	log        *slog.Logger
	adapters   *parser.Registry
	aggregator *Aggregator
	store      SnapshotStore
	dispatcher Dispatcher
	archive    repository.DocumentStore
	locks      *sourceLocks
}

// Option customizes a Checker.
type Option func(*Checker)

// WithArchive stores the raw pages of every run that found ads.
func WithArchive(docs repository.DocumentStore) Option {
	return func(c *Checker) { c.archive = docs }
}

// NewChecker creates a new Checker instance.
func NewChecker(
	log *slog.Logger,
	adapters *parser.Registry,
	searcher Searcher,
	store SnapshotStore,
	dispatcher Dispatcher,
	opts ...Option,
) *Checker {
	c := &Checker{
		log:        log,
		adapters:   adapters,
		aggregator: NewAggregator(log, searcher),
		store:      store,
		dispatcher: dispatcher,
		locks:      newSourceLocks(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run performs one run of search. Fetch and persistence failures abort the run
// before anything is written; notification failures are only logged.
func (c *Checker) Run(ctx context.Context, search models.Search) (*models.RunReport, error) {
	const opn = "checker.Run"
	log := c.log.With("op", opn, "source", search.Source, "model", search.Model)
	report := &models.RunReport{Key: search.Key()}

	adapter, err := c.adapters.Adapter(search.Source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	log.InfoContext(ctx, "Starting scraping")
	coll, err := c.aggregator.Collect(ctx, adapter, search)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to collect ads: %w", opn, err)
	}

	report.Pages = len(coll.Pages)
	report.ExtractionFailures = coll.Failures
	if !coll.Found {
		return report, nil
	}
	report.Found = true
	report.Candidates = len(coll.Ads)

	newAds, err := c.diffAndMerge(ctx, search.Key(), coll.Ads)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	report.New = len(newAds)
	log.InfoContext(ctx, "Snapshot updated", "candidates", len(coll.Ads), "new", len(newAds))

	c.archivePages(ctx, log, adapter.Config(), search, coll.Pages)

	if len(newAds) == 0 {
		return report, nil
	}

	log.InfoContext(ctx, "Sending notification", "new", len(newAds))
	delivered, err := c.dispatcher.Dispatch(ctx, search, adapter, newAds)
	if err != nil {
		log.ErrorContext(ctx, "Notification failed", "delivered", delivered, "error", err)
	}
	report.Notified = delivered > 0

	return report, nil
}

// diffAndMerge computes the new ads and merges the candidate set while holding the source lock,
// so concurrent runs of one source never report the same ad twice.
func (c *Checker) diffAndMerge(ctx context.Context, key models.SnapshotKey, candidate models.AdSet) (models.AdSet, error) {
	unlock, err := c.locks.lock(ctx, key.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to lock source %s: %w", key.Source, err)
	}
	defer unlock()

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled before merge: %w", err)
	}

	newAds, err := c.store.DiffFromPersistent(ctx, candidate, key)
	if err != nil {
		return nil, fmt.Errorf("failed to diff snapshot: %w", err)
	}

	if err = c.store.Merge(ctx, candidate, key); err != nil {
		return nil, fmt.Errorf("failed to merge snapshot: %w", err)
	}

	return newAds, nil
}

func (c *Checker) archivePages(
	ctx context.Context,
	log *slog.Logger,
	cfg parser.SourceConfig,
	search models.Search,
	pages [][]byte,
) {
	if c.archive == nil || len(pages) == 0 {
		return
	}

	name := cfg.Name
	if search.Model != "" {
		name += "_" + search.Model
	}
	path := fmt.Sprintf("%s/%s_ads.%s", cfg.Name, name, cfg.ArchiveExt)

	if err := c.archive.WriteDocument(ctx, path, bytes.Join(pages, []byte("\n"))); err != nil {
		log.WarnContext(ctx, "Failed to archive raw pages", "path", path, "error", err)
	}
}

// Sweep runs every search, at most parallelism at a time. A failing search does not
// stop the others; reports of failed searches are nil and their errors are returned combined.
func (c *Checker) Sweep(ctx context.Context, searches []models.Search, parallelism int) ([]*models.RunReport, error) {
	const opn = "checker.Sweep"
	if parallelism < 1 {
		parallelism = 1
	}

	reports := make([]*models.RunReport, len(searches))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(parallelism)
	for idx, search := range searches {
		p.Go(func(ctx context.Context) error {
			report, err := c.Run(ctx, search)
			if err != nil {
				c.log.ErrorContext(ctx, "Run failed",
					"op", opn, "source", search.Source, "model", search.Model, "error", err)
				return fmt.Errorf("%s: %w", search.Key(), err)
			}
			reports[idx] = report
			return nil
		})
	}

	return reports, p.Wait()
}
