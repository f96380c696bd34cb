// Package alert matches alerts against listing results and manages their lifecycle.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/pricewatch/hardgamers-watcher/internal/models"
	"github.com/pricewatch/hardgamers-watcher/logger"

	"golang.org/x/time/rate"
)

// Searcher returns the products listed for a search text
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Product, error)
}

// Result is the outcome of checking one alert
type Result struct {
	// Triggered holds the products priced at or below the target, in input order
	Triggered []models.Product `json:"triggered"`

	// All is the full candidate list the alert was evaluated against
	All []models.Product `json:"all"`
}

// Results maps alert ids to their outcome
type Results map[int64]Result

// TotalTriggered counts triggered products over every alert
func (r Results) TotalTriggered() int {
	total := 0
	for _, result := range r {
		total += len(result.Triggered)
	}
	return total
}

func emptyResult() Result {
	return Result{Triggered: []models.Product{}, All: []models.Product{}}
}

// Evaluate partitions products into those that trigger a and the full list
func Evaluate(a models.Alert, products []models.Product) Result {
	result := Result{
		Triggered: make([]models.Product, 0, len(products)),
		All:       products,
	}
	if result.All == nil {
		result.All = []models.Product{}
	}

	for _, p := range products {
		if a.IsTriggeredBy(p.Price) {
			result.Triggered = append(result.Triggered, p)
		}
	}

	return result
}

// Engine searches and evaluates a batch of alerts, one at a time
type Engine struct {
	searcher Searcher
	limit    rate.Limit
	log      *logger.Logger
}

// NewEngine creates an engine that pauses pacing between the end of one search and the start of the next
func NewEngine(searcher Searcher, pacing time.Duration, log *logger.Logger) *Engine {
	limit := rate.Inf
	if pacing > 0 {
		limit = rate.Every(pacing)
	}
	if log == nil {
		log = logger.ForAlerts()
	}

	return &Engine{
		searcher: searcher,
		limit:    limit,
		log:      log,
	}
}

// Evaluate searches for a single alert and evaluates the results.
// It does not check whether the alert is active.
func (e *Engine) Evaluate(ctx context.Context, a models.Alert) (Result, error) {
	products, err := e.search(ctx, a)
	if err != nil {
		return emptyResult(), err
	}
	return Evaluate(a, products), nil
}

// EvaluateAll checks every active, stored alert. Inactive alerts and alerts
// without an ID are absent from the result.
//
// A failing alert maps to an empty Result and never stops the batch. When ctx is
// cancelled or its deadline cannot fit the next pause, the alerts finished so far
// are returned together with the context error.
func (e *Engine) EvaluateAll(ctx context.Context, alerts []models.Alert) (Results, error) {
	results := make(Results, len(alerts))
	pacer := rate.NewLimiter(e.limit, 1)

	for _, a := range alerts {
		if !a.IsActive {
			continue
		}
		if a.ID == 0 {
			e.log.Warn().
				Str("search_text", a.SearchText).
				Msg("Skipping unsaved alert")
			continue
		}

		if err := pacer.Wait(ctx); err != nil {
			return results, contextErr(ctx, err)
		}

		products, err := e.search(ctx, a)
		pacer = drainedLimiter(e.limit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			e.log.Error().
				Err(err).
				Int64("alert_id", a.ID).
				Str("search_text", a.SearchText).
				Msg("Alert check failed")
			results[a.ID] = emptyResult()
			continue
		}

		result := Evaluate(a, products)
		results[a.ID] = result

		e.log.Info().
			Int64("alert_id", a.ID).
			Str("search_text", a.SearchText).
			Int("products", len(result.All)).
			Int("triggered", len(result.Triggered)).
			Msg("Alert checked")
	}

	return results, nil
}

// drainedLimiter returns a limiter whose only token was just spent, so the next
// Wait blocks for a full interval from now
func drainedLimiter(limit rate.Limit) *rate.Limiter {
	limiter := rate.NewLimiter(limit, 1)
	limiter.Allow()
	return limiter
}

// search calls the searcher, turning a panic into an error
func (e *Engine) search(ctx context.Context, a models.Alert) (products []models.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("search for alert %d panicked: %v", a.ID, r)
		}
	}()

	return e.searcher.Search(ctx, a.SearchText)
}

// contextErr reports limiter failures as context errors. The limiter gives up
// before the deadline passes when the wait would not fit, while ctx.Err() is still nil.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}
