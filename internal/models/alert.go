package models

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	"github.com/shopspring/decimal"
)

// Alert fires for every product of its search whose price is at or below TargetPrice
type Alert struct {
	ID          int64           `json:"id,omitempty"`
	SearchText  string          `json:"search_text"`
	TargetPrice decimal.Decimal `json:"target_price"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewAlert builds an active, validated alert stamped with the current time
func NewAlert(searchText string, target decimal.Decimal) (Alert, error) {
	a := Alert{
		SearchText:  strings.TrimSpace(searchText),
		TargetPrice: target,
		IsActive:    true,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := a.Validate(); err != nil {
		return Alert{}, err
	}
	return a, nil
}

// Validate checks the alert invariants
func (a Alert) Validate() error {
	if strings.TrimSpace(a.SearchText) == "" {
		return apperrors.NewValidation("alert", "search text must not be blank")
	}
	if !a.TargetPrice.IsPositive() {
		return apperrors.NewValidation("alert", fmt.Sprintf("target price must be greater than zero, got %s", a.TargetPrice))
	}
	return nil
}

// IsTriggeredBy reports whether amount clears the target (inclusive)
func (a Alert) IsTriggeredBy(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(a.TargetPrice)
}

// Activate marks the alert active
func (a *Alert) Activate() {
	a.IsActive = true
}

// Deactivate pauses the alert
func (a *Alert) Deactivate() {
	a.IsActive = false
}

// Toggle flips the activation state and returns the new one
func (a *Alert) Toggle() bool {
	if a.IsActive {
		a.Deactivate()
	} else {
		a.Activate()
	}
	return a.IsActive
}
