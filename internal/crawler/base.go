package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pricewatch/hardgamers-watcher/internal/models"
	"github.com/pricewatch/hardgamers-watcher/internal/price"
	"github.com/pricewatch/hardgamers-watcher/logger"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"
)

// Extractor turns raw records of one site into validated products
type Extractor struct {
	site   Site
	origin *url.URL
	log    *logger.Logger
}

// NewExtractor creates an extractor for site; the site origin must be an absolute URL
func NewExtractor(site Site, log *logger.Logger) (*Extractor, error) {
	origin, err := url.Parse(site.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("site %s has an invalid origin %q", site.Name, site.Origin), err)
	}
	if log == nil {
		log = logger.ForSite(site.Name)
	}

	return &Extractor{
		site:   site,
		origin: origin,
		log:    log,
	}, nil
}

// Site returns the site the extractor was built for
func (e *Extractor) Site() Site {
	return e.site
}

// Extract builds a product from a single record
func (e *Extractor) Extract(rec Record) (models.Product, error) {
	title, ok := rec.FindFirst(LabelTitle)
	if !ok {
		return models.Product{}, apperrors.NewValidation(e.site.Name, "record has no title")
	}

	fragments := rec.FindAll(LabelPrice)
	if len(fragments) == 0 {
		return models.Product{}, apperrors.NewParsing(e.site.Name, fmt.Sprintf("no price for %q", title), apperrors.ErrEmptyPrice)
	}

	amount, err := price.Parse(strings.Join(fragments, " "))
	if err != nil {
		return models.Product{}, err
	}

	var link string
	if href, ok := rec.FindLink(); ok {
		link = e.ResolveURL(href)
	}

	return models.NewProduct(title, amount, e.site.Name, link)
}

// ExtractAll extracts every record it can, logging and skipping the rest.
// Input order is preserved.
func (e *Extractor) ExtractAll(records []Record) []models.Product {
	products := make([]models.Product, 0, len(records))

	for i, rec := range records {
		product, err := e.Extract(rec)
		if err != nil {
			e.log.Warn().
				Err(err).
				Int("record", i).
				Msg("skipping record")
			continue
		}
		products = append(products, product)
	}

	e.log.Debug().
		Int("records", len(records)).
		Int("products", len(products)).
		Msg("Extracted products")

	return products
}

// ResolveURL makes href absolute against the site origin. Unparseable links are dropped.
func (e *Extractor) ResolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		e.log.Debug().Err(err).Str("href", href).Msg("Dropping unparseable link")
		return ""
	}

	return e.origin.ResolveReference(ref).String()
}
