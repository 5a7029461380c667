package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Houeta/car-watch/internal/models"
	"github.com/PuerkitoBio/goquery"
)

// ICarrosConfig is the site configuration of www.icarros.com.br.
var ICarrosConfig = SourceConfig{
	Name:           "icarros",
	MainURL:        "https://www.icarros.com.br",
	SearchURL:      "https://www.icarros.com.br/ache/listaanuncios.jsp",
	ResultsPerPage: 35,
	ArchiveExt:     "html",
}

const (
	icarrosCardsSelector   = "ul#cards-grid li script"
	icarrosProgressBarSelr = "progress.pagination__progress-bar"
)

// ICarros reads the HTML result pages, where every card embeds its ad as a JSON script.
type ICarros struct {
	cfg SourceConfig
}

func NewICarros(cfg SourceConfig) *ICarros {
	return &ICarros{cfg: cfg}
}

func (a *ICarros) Config() SourceConfig { return a.cfg }

// PageURL appends the search filter, e.g. "sop=esc_2.1_-cid_9668.1_-rai_50.1_-", to the paging parameters.
func (a *ICarros) PageURL(search models.Search, page int) string {
	u := fmt.Sprintf("%s?pag=%d&ord=%d", a.cfg.SearchURL, page, a.cfg.ResultsPerPage)
	if filter := strings.TrimLeft(search.Filter, "&?"); filter != "" {
		u += "&" + filter
	}
	return u
}

func (a *ICarros) DiscoverMaxPage(content []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return 1
	}

	maxAttr, found := doc.Find(icarrosProgressBarSelr).First().Attr("max")
	if !found {
		return 1
	}

	maxPage, err := strconv.Atoi(strings.TrimSpace(maxAttr))
	if err != nil || maxPage < 1 {
		return 1
	}

	return maxPage
}

func (a *ICarros) ExtractRawRecords(content []byte) ([][]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	var raws [][]byte
	doc.Find(icarrosCardsSelector).Each(func(_ int, s *goquery.Selection) {
		raws = append(raws, []byte(strings.TrimSpace(s.Text())))
	})

	return raws, nil
}

type icarrosAd struct {
	MakesOffer *struct {
		VehicleIdentificationNumber string `json:"vehicleIdentificationNumber"`
		Offers                      struct {
			URL string `json:"url"`
		} `json:"offers"`
	} `json:"makesOffer"`
}

func (a *ICarros) Normalize(raw []byte) (models.AdRecord, error) {
	if len(raw) == 0 {
		return models.AdRecord{}, extractionError(a.cfg.Name, "empty ad script", nil)
	}

	var ad icarrosAd
	if err := json.Unmarshal(raw, &ad); err != nil {
		return models.AdRecord{}, extractionError(a.cfg.Name, "malformed ad json", err)
	}
	if ad.MakesOffer == nil {
		return models.AdRecord{}, extractionError(a.cfg.Name, "missing makesOffer", nil)
	}

	id, ok := ExtractID(ad.MakesOffer.VehicleIdentificationNumber)
	if !ok {
		return models.AdRecord{}, extractionError(a.cfg.Name,
			fmt.Sprintf("invalid vehicle identification %q", ad.MakesOffer.VehicleIdentificationNumber), nil)
	}

	path := strings.TrimSpace(ad.MakesOffer.Offers.URL)
	if path == "" {
		return models.AdRecord{}, extractionError(a.cfg.Name, "missing offer url", nil)
	}

	return models.AdRecord{
		ID:      id,
		URL:     a.cfg.MainURL + path,
		Payload: json.RawMessage(raw),
	}, nil
}

type icarrosDigest struct {
	MakesOffer struct {
		Name                any `json:"name"`
		Color               any `json:"color"`
		Description         any `json:"description"`
		ProductionDate      any `json:"productionDate"`
		MileageFromOdometer struct {
			Value any `json:"value"`
		} `json:"mileageFromOdometer"`
		Offers struct {
			Price any `json:"price"`
		} `json:"offers"`
	} `json:"makesOffer"`
}

func (a *ICarros) Project(record models.AdRecord) models.DigestEntry {
	var ad icarrosDigest
	_ = json.Unmarshal(record.Payload, &ad) // a payload that passed Normalize always decodes

	offer := ad.MakesOffer
	return models.DigestEntry{
		Model:       offer.Name,
		Color:       offer.Color,
		Description: offer.Description,
		Year:        offer.ProductionDate,
		Km:          offer.MileageFromOdometer.Value,
		Price:       offer.Offers.Price,
	}
}
