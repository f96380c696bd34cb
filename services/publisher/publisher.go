package publisher

import (
	"context"
	"time"

	"github.com/pricewatch/hardgamers-watcher/internal/models"

	"github.com/shopspring/decimal"
)

// TriggerEvent reports one product that cleared an alert's target price
type TriggerEvent struct {
	AlertID     int64           `json:"alert_id"`
	SearchText  string          `json:"search_text"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Shop        string          `json:"shop"`
	URL         string          `json:"url,omitempty"`
	CheckedAt   time.Time       `json:"checked_at"`
}

// NewTriggerEvent builds the event for product p triggering alert a
func NewTriggerEvent(a models.Alert, p models.Product, checkedAt time.Time) TriggerEvent {
	return TriggerEvent{
		AlertID:     a.ID,
		SearchText:  a.SearchText,
		TargetPrice: a.TargetPrice,
		Title:       p.Title,
		Price:       p.Price,
		Shop:        p.Shop,
		URL:         p.URL,
		CheckedAt:   checkedAt.UTC(),
	}
}

// Publisher represents a service for publishing trigger events
type Publisher interface {
	// Publish appends an event to the stream
	Publish(ctx context.Context, event TriggerEvent) error

	// TrimStream trims the stream to the configured maximum length
	TrimStream(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
