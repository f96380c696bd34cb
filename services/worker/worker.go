package worker

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pricewatch/hardgamers-watcher/internal/alert"
	"github.com/pricewatch/hardgamers-watcher/internal/models"
	"github.com/pricewatch/hardgamers-watcher/logger"
	"github.com/pricewatch/hardgamers-watcher/services/cache"
	"github.com/pricewatch/hardgamers-watcher/services/publisher"
)

// Checker evaluates the active alerts
type Checker interface {
	CheckActive(ctx context.Context) ([]models.Alert, alert.Results, error)
}

// Options configures a Worker
type Options struct {
	// Interval is the pause between two check passes
	Interval time.Duration

	// DedupTTL is how long an identical trigger stays suppressed
	DedupTTL time.Duration
}

// Worker periodically checks the active alerts and publishes their triggers
type Worker struct {
	checker   Checker
	publisher publisher.Publisher
	cache     cache.CacheService
	log       *logger.Logger
	opts      Options
	now       func() time.Time
}

// NewWorker creates a new worker. pub and cacheSvc may be nil: without a publisher
// triggers are only logged, without a cache every trigger is published.
func NewWorker(checker Checker, pub publisher.Publisher, cacheSvc cache.CacheService, log *logger.Logger, opts Options) *Worker {
	if log == nil {
		log = logger.ForWorker()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}

	return &Worker{
		checker:   checker,
		publisher: pub,
		cache:     cacheSvc,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// Start runs check passes until ctx is cancelled
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		if _, err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Error().Err(err).Msg("Check pass failed")
		}
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("Check pass finished")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single check pass and returns the number of triggers published
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	alerts, results, err := w.checker.CheckActive(ctx)
	if err != nil {
		return 0, err
	}

	checkedAt := w.now()
	published := 0

	for _, a := range alerts {
		result, ok := results[a.ID]
		if !ok {
			continue
		}

		alertLog := w.log.WithFields(logger.Fields{
			"alert_id":    a.ID,
			"search_text": a.SearchText,
		})

		for _, p := range result.Triggered {
			event := publisher.NewTriggerEvent(a, p, checkedAt)

			if !w.firstSeen(event) {
				continue
			}

			alertLog.Info().
				Str("title", p.Title).
				Str("price", p.DisplayPrice()).
				Str("target_price", a.TargetPrice.String()).
				Msg("Alert triggered")

			if w.publisher == nil {
				continue
			}
			if err := w.publisher.Publish(ctx, event); err != nil {
				alertLog.WithError(err).Error().Str("title", p.Title).Msg("Failed to publish trigger")
				continue
			}
			published++
		}
	}

	if w.publisher != nil && published > 0 {
		if err := w.publisher.TrimStream(ctx); err != nil {
			w.log.Error().Err(err).Msg("Failed to trim trigger stream")
		}
	}

	return published, nil
}

// firstSeen reports whether the trigger has not been published within the dedup TTL.
// Cache failures never suppress a trigger.
func (w *Worker) firstSeen(event publisher.TriggerEvent) bool {
	if w.cache == nil {
		return true
	}

	added, err := w.cache.Add(DedupKey(event), []byte("1"), w.opts.DedupTTL)
	if err != nil {
		w.log.Warn().Err(err).Int64("alert_id", event.AlertID).Msg("Trigger dedup unavailable")
		return true
	}
	return added
}

// DedupKey identifies a trigger by alert, product and price; memcache keys must stay short and space free
func DedupKey(event publisher.TriggerEvent) string {
	product := event.URL
	if product == "" {
		product = event.Title
	}

	sum := sha1.Sum([]byte(fmt.Sprintf("%d|%s|%s", event.AlertID, product, event.Price.String())))
	return "pricewatch:trigger:" + hex.EncodeToString(sum[:])
}
