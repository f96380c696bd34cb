package models

import (
	"fmt"
	"strings"

	"github.com/pricewatch/hardgamers-watcher/internal/price"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	"github.com/shopspring/decimal"
)

// Product is one listing entry scraped from a shop
type Product struct {
	ID    int64           `json:"id,omitempty"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Shop  string          `json:"shop"`
	URL   string          `json:"url,omitempty"`
}

// NewProduct builds a validated product. ID stays zero until the product is stored.
func NewProduct(title string, amount decimal.Decimal, shop, url string) (Product, error) {
	p := Product{
		Title: strings.TrimSpace(title),
		Price: amount,
		Shop:  shop,
		URL:   url,
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Validate checks the product invariants
func (p Product) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return apperrors.NewValidation("product", "title must not be blank")
	}
	if p.Price.IsNegative() {
		return apperrors.NewValidation("product", fmt.Sprintf("price must not be negative, got %s", p.Price))
	}
	return nil
}

// DisplayPrice formats the price for people, e.g. "$19,999.50"
func (p Product) DisplayPrice() string {
	return price.Format(p.Price)
}

func (p Product) String() string {
	return fmt.Sprintf("%s - %s (%s)", p.Title, p.DisplayPrice(), p.Shop)
}
