package crawler

import (
	"io"
	"strings"

	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// selectionRecord is a Record backed by one goquery block of a listing page
type selectionRecord struct {
	sel  *goquery.Selection
	site Site
}

var _ Record = selectionRecord{}

// Records parses a listing page and returns one Record per product block
func (s Site) Records(page io.Reader) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrorTypeParsing, s.Name, "html parsing failed", err)
	}

	blocks := doc.Find(s.Selectors.RecordList)
	records := make([]Record, 0, blocks.Length())
	blocks.Each(func(_ int, sel *goquery.Selection) {
		records = append(records, selectionRecord{sel: sel, site: s})
	})

	return records, nil
}

// FindFirst returns the text of the first element matching the label's selector
func (r selectionRecord) FindFirst(label string) (string, bool) {
	selector := r.site.selector(label)
	if selector == "" {
		return "", false
	}

	found := r.sel.Find(selector)
	if found.Length() == 0 {
		return "", false
	}

	text := strings.TrimSpace(found.First().Text())
	return text, text != ""
}

// FindAll returns the texts of every element matching the label's selector
func (r selectionRecord) FindAll(label string) []string {
	selector := r.site.selector(label)
	if selector == "" {
		return nil
	}

	var texts []string
	r.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

// FindLink returns the first non-empty href inside the record
func (r selectionRecord) FindLink() (string, bool) {
	selector := r.site.Selectors.Link
	if selector == "" {
		selector = "a[href]"
	}

	var link string
	r.sel.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			link = strings.TrimSpace(href)
			return false
		}
		return true
	})

	return link, link != ""
}
