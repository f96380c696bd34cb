package crawler

import (
	"bytes"
	"context"
	"strings"

	"github.com/pricewatch/hardgamers-watcher/helpers"
	"github.com/pricewatch/hardgamers-watcher/internal/models"
	"github.com/pricewatch/hardgamers-watcher/logger"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"
)

// QueryPlaceholder marks where the encoded search text goes in a search URL template
const QueryPlaceholder = "{query}"

// ListingURLs are the two listing endpoints of a site
type ListingURLs struct {
	// FeaturedURL lists discounted / featured products
	FeaturedURL string

	// SearchURL contains QueryPlaceholder; without it the query is appended
	SearchURL string
}

// ListingService turns listing pages into products
type ListingService struct {
	fetcher   Fetcher
	extractor *Extractor
	urls      ListingURLs
	log       *logger.Logger
}

// NewListingService creates a listing service
func NewListingService(fetcher Fetcher, extractor *Extractor, urls ListingURLs, log *logger.Logger) *ListingService {
	if log == nil {
		log = logger.ForSite(extractor.Site().Name)
	}

	return &ListingService{
		fetcher:   fetcher,
		extractor: extractor,
		urls:      urls,
		log:       log,
	}
}

// FetchFeatured returns the products of the featured listing.
// A failed fetch yields an empty list; only cancellation is returned as an error.
func (s *ListingService) FetchFeatured(ctx context.Context) ([]models.Product, error) {
	return s.list(ctx, s.urls.FeaturedURL, "featured")
}

// Search returns the products the site lists for query.
// Blank queries are rejected before any request is made.
func (s *ListingService) Search(ctx context.Context, query string) ([]models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidation(s.extractor.Site().Name, "search text must not be blank")
	}

	return s.list(ctx, s.SearchURL(query), "search")
}

// SearchURL builds the search endpoint for query
func (s *ListingService) SearchURL(query string) string {
	terms := helpers.QueryTerms(query, s.extractor.Site().QuerySeparator)
	if strings.Contains(s.urls.SearchURL, QueryPlaceholder) {
		return strings.ReplaceAll(s.urls.SearchURL, QueryPlaceholder, terms)
	}
	return s.urls.SearchURL + terms
}

func (s *ListingService) list(ctx context.Context, target string, operation string) ([]models.Product, error) {
	body, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Error().
			Err(err).
			Str("operation", operation).
			Str("url", target).
			Msg("Listing fetch failed, returning no products")
		return []models.Product{}, nil
	}

	records, err := s.extractor.Site().Records(bytes.NewReader(body))
	if err != nil {
		s.log.Error().
			Err(err).
			Str("operation", operation).
			Str("url", target).
			Msg("Listing page could not be parsed, returning no products")
		return []models.Product{}, nil
	}

	products := s.extractor.ExtractAll(records)

	s.log.Info().
		Str("operation", operation).
		Int("records", len(records)).
		Int("products", len(products)).
		Msg("Listing fetched")

	return products, nil
}
