package crawler

import (
	"context"
)

// Labels every Record understands
const (
	LabelTitle = "title"
	LabelPrice = "price"
)

// Record is one raw product block of a listing page, before extraction
type Record interface {
	// FindFirst returns the trimmed text of the first element carrying label
	FindFirst(label string) (string, bool)

	// FindAll returns the trimmed, non-empty texts of every element carrying label
	FindAll(label string) []string

	// FindLink returns the first link target of the record as written in the page
	FindLink() (string, bool)
}

// Fetcher retrieves the raw body of a page
type Fetcher interface {
	Fetch(ctx context.Context, target string) ([]byte, error)
}

// Selectors contains CSS selectors for the elements of a listing page
type Selectors struct {
	RecordList string
	Title      string
	Price      string
	Link       string
}

// Site describes one shop: how its pages are laid out and where relative links point
type Site struct {
	// Name is stamped on every product as its shop
	Name string

	// Origin resolves relative product links
	Origin string

	// QuerySeparator joins search words in the search URL
	QuerySeparator string

	Selectors Selectors
}

// selector maps a record label to the site's CSS selector
func (s Site) selector(label string) string {
	switch label {
	case LabelTitle:
		return s.Selectors.Title
	case LabelPrice:
		return s.Selectors.Price
	default:
		return ""
	}
}
