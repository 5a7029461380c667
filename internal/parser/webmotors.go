package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Houeta/car-watch/internal/models"
)

// WebmotorsConfig is the site configuration of www.webmotors.com.br.
var WebmotorsConfig = SourceConfig{
	Name:       "webmotors",
	MainURL:    "https://www.webmotors.com.br",
	SearchURL:  "https://www.webmotors.com.br/api/search/car?url=https://www.webmotors.com.br/carros",
	ArchiveExt: "json",
}

// Webmotors reads the JSON search API, which returns every result in one response.
type Webmotors struct {
	cfg SourceConfig
}

func NewWebmotors(cfg SourceConfig) *Webmotors {
	return &Webmotors{cfg: cfg}
}

func (a *Webmotors) Config() SourceConfig { return a.cfg }

// PageURL appends the model path and encoded query, e.g. "/sp/honda/fit?estadocidade=...", to the API URL.
// The API answers with a single page, so page is ignored.
func (a *Webmotors) PageURL(search models.Search, _ int) string {
	return a.cfg.SearchURL + search.Filter
}

func (a *Webmotors) DiscoverMaxPage([]byte) int { return 1 }

func (a *Webmotors) ExtractRawRecords(content []byte) ([][]byte, error) {
	var page struct {
		SearchResults []json.RawMessage `json:"SearchResults"`
	}
	if err := json.Unmarshal(content, &page); err != nil {
		return nil, fmt.Errorf("data cannot be parsed as search results: %w", err)
	}

	raws := make([][]byte, 0, len(page.SearchResults))
	for _, r := range page.SearchResults {
		raws = append(raws, r)
	}

	return raws, nil
}

type valueField struct {
	Value string `json:"Value"`
}

type webmotorsAd struct {
	UniqueID      json.Number `json:"UniqueId"`
	Specification *struct {
		Make            valueField  `json:"Make"`
		Model           valueField  `json:"Model"`
		Version         valueField  `json:"Version"`
		NumberPorts     json.Number `json:"NumberPorts"`
		YearFabrication json.Number `json:"YearFabrication"`
		YearModel       json.Number `json:"YearModel"`
	} `json:"Specification"`
}

func (a *Webmotors) Normalize(raw []byte) (models.AdRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.AdRecord{}, extractionError(a.cfg.Name, "malformed ad json", err)
	}

	var ad webmotorsAd
	if err := json.Unmarshal(raw, &ad); err != nil {
		return models.AdRecord{}, extractionError(a.cfg.Name, "unexpected ad fields", err)
	}

	id, ok := ExtractID(ad.UniqueID.String())
	if !ok {
		return models.AdRecord{}, extractionError(a.cfg.Name, "missing UniqueId", nil)
	}

	adURL, err := a.adURL(ad, id)
	if err != nil {
		return models.AdRecord{}, extractionError(a.cfg.Name, "cannot build ad url", err)
	}

	delete(fields, "Media")
	payload, err := json.Marshal(fields)
	if err != nil {
		return models.AdRecord{}, extractionError(a.cfg.Name, "cannot encode payload", err)
	}

	return models.AdRecord{ID: id, URL: adURL, Payload: payload}, nil
}

// adURL rebuilds the public ad link, e.g.
// https://www.webmotors.com.br/comprar/honda/fit/15-ex-16v/4-portas/2019-2020/123456.
func (a *Webmotors) adURL(ad webmotorsAd, id string) (string, error) {
	spec := ad.Specification
	if spec == nil {
		return "", errors.New("missing Specification")
	}
	if spec.Make.Value == "" || spec.Model.Value == "" || spec.Version.Value == "" {
		return "", errors.New("missing make, model or version")
	}
	if spec.NumberPorts == "" || spec.YearFabrication == "" || spec.YearModel == "" {
		return "", errors.New("missing ports or years")
	}

	yearModel, err := spec.YearModel.Float64()
	if err != nil {
		return "", fmt.Errorf("invalid YearModel: %w", err)
	}

	parts := []string{
		a.cfg.MainURL,
		"comprar",
		spec.Make.Value,
		spec.Model.Value,
		slug(spec.Version.Value),
		spec.NumberPorts.String() + "-portas",
		fmt.Sprintf("%s-%d", spec.YearFabrication, int(yearModel)),
		id,
	}

	return strings.ToLower(strings.Join(parts, "/")), nil
}

type webmotorsDigest struct {
	Specification struct {
		Title           any `json:"Title"`
		YearFabrication any `json:"YearFabrication"`
		Odometer        any `json:"Odometer"`
	} `json:"Specification"`
	Seller struct {
		City any `json:"City"`
	} `json:"Seller"`
	Prices struct {
		Price any `json:"Price"`
	} `json:"Prices"`
}

func (a *Webmotors) Project(record models.AdRecord) models.DigestEntry {
	var ad webmotorsDigest
	_ = json.Unmarshal(record.Payload, &ad) // a payload that passed Normalize always decodes

	return models.DigestEntry{
		Model: ad.Specification.Title,
		City:  ad.Seller.City,
		Year:  ad.Specification.YearFabrication,
		Km:    ad.Specification.Odometer,
		Price: ad.Prices.Price,
	}
}
