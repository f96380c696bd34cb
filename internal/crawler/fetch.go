package crawler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pricewatch/hardgamers-watcher/helpers"
	"github.com/pricewatch/hardgamers-watcher/logger"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"
)

const fetchComponent = "fetch"

// maxBackoff caps the wait between two attempts
const maxBackoff = 10 * time.Minute

// FetchConfig bounds the retry budget of a FetchClient
type FetchConfig struct {
	// MaxRetries is the total number of attempts, at least 1
	MaxRetries int

	// BaseDelay is the wait after the first failed attempt; it doubles after each further failure
	BaseDelay time.Duration

	// Timeout bounds every single attempt
	Timeout time.Duration
}

// fetchState is a step of the retry state machine
type fetchState string

const (
	stateAttempting fetchState = "attempting"
	stateBackoff    fetchState = "backoff"
	stateSucceeded  fetchState = "succeeded"
	stateExhausted  fetchState = "exhausted"
)

// FetchClient performs GET requests with bounded, strictly sequential retries
type FetchClient struct {
	cfg    FetchConfig
	client *http.Client
	log    *logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ Fetcher = (*FetchClient)(nil)

// NewFetchClient creates a fetch client
func NewFetchClient(cfg FetchConfig, log *logger.Logger) *FetchClient {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.ForFetch()
	}

	return &FetchClient{
		cfg:    cfg,
		client: &http.Client{},
		log:    log,
		sleep:  sleepContext,
	}
}

// Fetch returns the UTF-8 body of target once it answers 200 OK.
//
// Transport failures and any other status are retried after BaseDelay*2^(n-1),
// capped at maxBackoff, until MaxRetries attempts have been made. Malformed URLs
// and certificate failures are not retried.
func (c *FetchClient) Fetch(ctx context.Context, target string) ([]byte, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	var (
		body    []byte
		lastErr error
		attempt = 1
		state   = stateAttempting
	)

	for {
		if state != stateSucceeded {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		switch state {
		case stateAttempting:
			var err error
			body, err = c.attempt(ctx, target, attempt)
			if err == nil {
				state = stateSucceeded
				continue
			}

			lastErr = err
			c.log.Warn().
				Err(err).
				Str("url", target).
				Int("attempt", attempt).
				Int("max_retries", c.cfg.MaxRetries).
				Msg("Fetch attempt failed")

			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && !appErr.IsRetryable() {
				return nil, err
			}

			if attempt >= c.cfg.MaxRetries {
				state = stateExhausted
			} else {
				state = stateBackoff
			}

		case stateBackoff:
			delay := c.backoff(attempt)
			c.log.Debug().
				Str("url", target).
				Dur("delay", delay).
				Msg("Waiting before next attempt")

			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			attempt++
			state = stateAttempting

		case stateSucceeded:
			c.log.Debug().
				Str("url", target).
				Int("attempt", attempt).
				Int("bytes", len(body)).
				Msg("Fetched page")
			return body, nil

		case stateExhausted:
			c.log.Error().
				Err(lastErr).
				Str("url", target).
				Int("attempts", attempt).
				Msg("Fetch retries exhausted")
			return nil, apperrors.NewExhausted(fetchComponent, attempt, lastErr)
		}
	}
}

// attempt performs one GET bounded by the per-attempt timeout
func (c *FetchClient) attempt(ctx context.Context, target string, n int) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := helpers.FetchWithBrowserHeaders(attemptCtx, c.client, target)
	if err != nil {
		var (
			statusErr *helpers.StatusError
			certErr   *tls.CertificateVerificationError
		)
		if errors.As(err, &certErr) {
			return nil, apperrors.NewInvalidRequest(fetchComponent, fmt.Sprintf("attempt %d: certificate rejected", n), err)
		}
		if errors.As(err, &statusErr) {
			return nil, apperrors.NewTransient(fetchComponent, fmt.Sprintf("attempt %d: HTTP %d", n, statusErr.StatusCode), err)
		}
		return nil, apperrors.NewTransient(fetchComponent, fmt.Sprintf("attempt %d", n), err)
	}

	return body, nil
}

// backoff returns the wait that follows failed attempt n
func (c *FetchClient) backoff(n int) time.Duration {
	if c.cfg.BaseDelay <= 0 {
		return 0
	}

	shift := n - 1
	if shift < 0 {
		shift = 0
	}
	if shift >= 62 || c.cfg.BaseDelay > maxBackoff>>shift {
		return maxBackoff
	}
	return c.cfg.BaseDelay << shift
}

func validateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return apperrors.NewInvalidRequest(fetchComponent, fmt.Sprintf("malformed url %q", target), err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.NewInvalidRequest(fetchComponent, fmt.Sprintf("malformed url %q", target), nil)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
