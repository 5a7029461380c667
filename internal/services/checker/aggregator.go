package checker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Houeta/car-watch/internal/models"
	"github.com/Houeta/car-watch/internal/parser"
)

// Searcher retrieves the raw content behind a URL.
type Searcher interface {
	Search(ctx context.Context, url string) ([]byte, error)
}

// Collection is what paging through one search produced.
type Collection struct {
	Found    bool         // Found is false when the first page had no ads.
	Ads      models.AdSet // Ads is the candidate set of the run.
	Pages    [][]byte     // Pages holds the raw content of each fetched page in order.
	MaxPage  int
	Failures int // Failures counts ads dropped because they could not be extracted.
}

// Aggregator walks the result pages of a search and assembles the candidate set.
type Aggregator struct {
	log      *slog.Logger
	searcher Searcher
}

func NewAggregator(log *slog.Logger, searcher Searcher) *Aggregator {
	return &Aggregator{log: log, searcher: searcher}
}

// Collect fetches page 1, stops there when it has no ads, and otherwise fetches
// pages 2..max sequentially. Ads that fail extraction are logged and skipped;
// any page that cannot be fetched aborts the collection with a *models.FetchError.
func (a *Aggregator) Collect(ctx context.Context, adapter parser.Adapter, search models.Search) (*Collection, error) {
	const opn = "checker.Aggregator.Collect"
	log := a.log.With("op", opn, "source", search.Source, "model", search.Model)

	first, raws, err := a.fetchPage(ctx, adapter, search, 1)
	if err != nil {
		return nil, err
	}

	coll := &Collection{Ads: models.AdSet{}, MaxPage: 1}
	if len(raws) == 0 {
		log.InfoContext(ctx, "No result found on first page")
		return coll, nil
	}

	coll.Found = true
	coll.MaxPage = adapter.DiscoverMaxPage(first)
	coll.add(ctx, log, adapter, 1, first, raws)

	for page := 2; page <= coll.MaxPage; page++ {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: stopped before page %d: %w", opn, page, err)
		}

		content, pageRaws, err := a.fetchPage(ctx, adapter, search, page)
		if err != nil {
			return nil, err
		}
		coll.add(ctx, log, adapter, page, content, pageRaws)
	}

	log.InfoContext(ctx, "Pages collected",
		"pages", coll.MaxPage, "ads", len(coll.Ads), "extraction_failures", coll.Failures)

	return coll, nil
}

func (a *Aggregator) fetchPage(
	ctx context.Context,
	adapter parser.Adapter,
	search models.Search,
	page int,
) ([]byte, [][]byte, error) {
	pageURL := adapter.PageURL(search, page)

	content, err := a.searcher.Search(ctx, pageURL)
	if err != nil {
		return nil, nil, &models.FetchError{Page: page, URL: pageURL, Err: err}
	}

	raws, err := adapter.ExtractRawRecords(content)
	if err != nil {
		return nil, nil, &models.FetchError{Page: page, URL: pageURL, Err: err}
	}

	return content, raws, nil
}

// add normalizes the ads of one page and merges them over what earlier pages produced.
func (c *Collection) add(
	ctx context.Context,
	log *slog.Logger,
	adapter parser.Adapter,
	page int,
	content []byte,
	raws [][]byte,
) {
	c.Pages = append(c.Pages, content)

	pageAds := make(models.AdSet, len(raws))
	for idx, raw := range raws {
		rec, err := adapter.Normalize(raw)
		if err != nil {
			c.Failures++
			log.WarnContext(ctx, "Skipping ad that cannot be extracted", "page", page, "index", idx, "error", err)
			continue
		}
		pageAds.Add(rec)
	}

	c.Ads = models.MergeAdSets(c.Ads, pageAds)
}
