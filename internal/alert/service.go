package alert

import (
	"context"
	"fmt"

	"github.com/pricewatch/hardgamers-watcher/internal/models"
	"github.com/pricewatch/hardgamers-watcher/logger"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	"github.com/shopspring/decimal"
)

// Store persists alerts
type Store interface {
	// Save inserts alerts with a zero ID and updates the rest
	Save(ctx context.Context, a models.Alert) (models.Alert, error)
	GetByID(ctx context.Context, id int64) (models.Alert, error)
	GetAll(ctx context.Context) ([]models.Alert, error)
	GetActive(ctx context.Context) ([]models.Alert, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Summary counts alerts by state
type Summary struct {
	Total    int            `json:"total_alerts"`
	Active   int            `json:"active_alerts"`
	Inactive int            `json:"inactive_alerts"`
	Alerts   []models.Alert `json:"alerts"`
}

// suggestedRatio is applied to the cheapest listed price to propose a target
var suggestedRatio = decimal.RequireFromString("0.9")

// Service manages alerts and checks them against the site
type Service struct {
	store  Store
	engine *Engine
	log    *logger.Logger
}

// NewService creates an alert service
func NewService(store Store, engine *Engine, log *logger.Logger) *Service {
	if log == nil {
		log = logger.ForAlerts()
	}
	return &Service{
		store:  store,
		engine: engine,
		log:    log,
	}
}

// Create validates and stores a new active alert
func (s *Service) Create(ctx context.Context, searchText string, target decimal.Decimal) (models.Alert, error) {
	a, err := models.NewAlert(searchText, target)
	if err != nil {
		return models.Alert{}, err
	}

	saved, err := s.store.Save(ctx, a)
	if err != nil {
		return models.Alert{}, fmt.Errorf("failed to save alert: %w", err)
	}

	s.log.Info().
		Int64("alert_id", saved.ID).
		Str("search_text", saved.SearchText).
		Str("target_price", saved.TargetPrice.String()).
		Msg("Alert created")

	return saved, nil
}

// Get returns one alert or a not_found error
func (s *Service) Get(ctx context.Context, id int64) (models.Alert, error) {
	return s.store.GetByID(ctx, id)
}

// List returns every alert, newest first
func (s *Service) List(ctx context.Context) ([]models.Alert, error) {
	return s.store.GetAll(ctx)
}

// Active returns the active alerts, newest first
func (s *Service) Active(ctx context.Context) ([]models.Alert, error) {
	return s.store.GetActive(ctx)
}

// Toggle flips an alert between active and inactive and stores it
func (s *Service) Toggle(ctx context.Context, id int64) (models.Alert, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.log.Warn().Int64("alert_id", id).Msg("Alert not found")
		}
		return models.Alert{}, err
	}

	active := a.Toggle()

	saved, err := s.store.Save(ctx, a)
	if err != nil {
		return models.Alert{}, fmt.Errorf("failed to save alert %d: %w", id, err)
	}

	s.log.Info().
		Int64("alert_id", id).
		Bool("is_active", active).
		Msg("Alert toggled")

	return saved, nil
}

// Delete removes an alert; it reports false when the id does not exist
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete alert %d: %w", id, err)
	}

	if deleted {
		s.log.Info().Int64("alert_id", id).Msg("Alert deleted")
	} else {
		s.log.Warn().Int64("alert_id", id).Msg("Alert not found for deletion")
	}

	return deleted, nil
}

// Check searches for one alert and evaluates it, whether or not it is active
func (s *Service) Check(ctx context.Context, id int64) (Result, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Result{}, err
	}

	result, err := s.engine.Evaluate(ctx, a)
	if err != nil {
		return result, fmt.Errorf("failed to check alert %d: %w", id, err)
	}

	if len(result.Triggered) > 0 {
		s.log.Info().
			Int64("alert_id", id).
			Int("triggered", len(result.Triggered)).
			Str("target_price", a.TargetPrice.String()).
			Msg("Alert triggered")
	}

	return result, nil
}

// CheckActive evaluates every active alert.
// The alerts are returned alongside the results so callers can describe each trigger.
func (s *Service) CheckActive(ctx context.Context) ([]models.Alert, Results, error) {
	alerts, err := s.store.GetActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load active alerts: %w", err)
	}

	if len(alerts) == 0 {
		s.log.Info().Msg("No active alerts to check")
		return alerts, Results{}, nil
	}

	results, err := s.engine.EvaluateAll(ctx, alerts)

	s.log.Info().
		Int("alerts", len(alerts)).
		Int("checked", len(results)).
		Int("triggered", results.TotalTriggered()).
		Msg("Active alerts checked")

	return alerts, results, err
}

// Summary counts all alerts by state
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	alerts, err := s.store.GetAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load alerts: %w", err)
	}

	summary := Summary{Total: len(alerts), Alerts: alerts}
	for _, a := range alerts {
		if a.IsActive {
			summary.Active++
		}
	}
	summary.Inactive = summary.Total - summary.Active

	return summary, nil
}

// SuggestTarget proposes 90% of the cheapest price as a target, rounded to cents.
// It reports false for an empty list.
func SuggestTarget(products []models.Product) (decimal.Decimal, bool) {
	if len(products) == 0 {
		return decimal.Zero, false
	}

	cheapest := products[0].Price
	for _, p := range products[1:] {
		if p.Price.LessThan(cheapest) {
			cheapest = p.Price
		}
	}

	return cheapest.Mul(suggestedRatio).Round(2), true
}
