package parser

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Houeta/car-watch/internal/models"
)

// ErrUnknownSource is returned for a search whose source has no adapter.
var ErrUnknownSource = errors.New("unknown source")

// SourceConfig is the fixed per-site configuration of an adapter.
type SourceConfig struct {
	Name           string // Name is the source key, e.g. "icarros".
	MainURL        string // MainURL prefixes relative ad links.
	SearchURL      string // SearchURL is the listing endpoint.
	ResultsPerPage int
	ArchiveExt     string // ArchiveExt is the file extension of archived raw pages.
}

// Adapter captures everything that differs between marketplaces.
type Adapter interface {
	// Config returns the adapter's immutable site configuration.
	Config() SourceConfig
	// PageURL returns the URL of the given 1-based result page for search.
	PageURL(search models.Search, page int) string
	// DiscoverMaxPage reads the last page number from the first page, defaulting to 1.
	DiscoverMaxPage(content []byte) int
	// ExtractRawRecords returns the raw ad payloads of a page in page order.
	ExtractRawRecords(content []byte) ([][]byte, error)
	// Normalize turns one raw payload into an AdRecord or returns an *models.ExtractionError.
	Normalize(raw []byte) (models.AdRecord, error)
	// Project picks the fields shown in notifications.
	Project(record models.AdRecord) models.DigestEntry
}

// Registry looks adapters up by source name.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry registers adapters under their configured names.
func NewRegistry(adapters ...Adapter) *Registry {
	reg := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		reg.adapters[a.Config().Name] = a
	}
	return reg
}

// DefaultRegistry returns a registry with every built-in marketplace.
func DefaultRegistry() *Registry {
	return NewRegistry(NewICarros(ICarrosConfig), NewWebmotors(WebmotorsConfig))
}

// Adapter returns the adapter registered for source.
func (r *Registry) Adapter(source string) (Adapter, error) {
	a, found := r.adapters[source]
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return a, nil
}

// Sources returns the registered source names in lexical order.
func (r *Registry) Sources() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func extractionError(source, reason string, err error) *models.ExtractionError {
	return &models.ExtractionError{Source: source, Reason: reason, Err: err}
}
