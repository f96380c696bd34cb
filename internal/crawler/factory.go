package crawler

import (
	"github.com/pricewatch/hardgamers-watcher/config"
	"github.com/pricewatch/hardgamers-watcher/logger"
)

// HardGamers returns the site layout of hardgamers.com.ar rooted at origin
func HardGamers(origin string) Site {
	return Site{
		Name:           "HardGamers",
		Origin:         origin,
		QuerySeparator: "+",
		Selectors: Selectors{
			RecordList: "article",
			Title:      ".product-title",
			Price:      ".product-price",
			Link:       "a[href]",
		},
	}
}

// CreateListingService wires the fetch client, extractor and listing service from the configuration
func CreateListingService(cfg *config.Config) (*ListingService, error) {
	site := HardGamers(cfg.SiteOrigin)
	log := logger.ForSite(site.Name)

	extractor, err := NewExtractor(site, log)
	if err != nil {
		return nil, err
	}

	fetcher := NewFetchClient(FetchConfig{
		MaxRetries: cfg.FetchMaxRetries,
		BaseDelay:  cfg.FetchBaseDelay,
		Timeout:    cfg.FetchTimeout,
	}, logger.ForFetch())

	log.Info().
		Str("featured_url", cfg.FeaturedURL).
		Str("search_url", cfg.SearchURL).
		Int("max_retries", cfg.FetchMaxRetries).
		Msg("Listing service created")

	return NewListingService(fetcher, extractor, ListingURLs{
		FeaturedURL: cfg.FeaturedURL,
		SearchURL:   cfg.SearchURL,
	}, log), nil
}
