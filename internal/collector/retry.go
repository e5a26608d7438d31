package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"StockPulse/internal/model"
)

// RetryFetcher retries a Fetcher with exponential backoff. ErrNoData is
// final and never retried.
type RetryFetcher struct {
	Fetcher    Fetcher
	MaxRetries int
	Backoff    time.Duration // first delay, doubled per attempt
}

// WithRetry wraps f. maxRetries <= 0 returns f unchanged.
func WithRetry(f Fetcher, maxRetries int, backoff time.Duration) Fetcher {
	if maxRetries <= 0 {
		return f
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &RetryFetcher{Fetcher: f, MaxRetries: maxRetries, Backoff: backoff}
}

func (r *RetryFetcher) Name() string { return r.Fetcher.Name() }

func (r *RetryFetcher) FetchBars(ctx context.Context, q Query) ([]model.Bar, error) {
	var lastErr error
	for i := 0; i <= r.MaxRetries; i++ {
		bars, err := r.Fetcher.FetchBars(ctx, q)
		if err == nil || errors.Is(err, ErrNoData) {
			return bars, err
		}
		lastErr = err
		if i == r.MaxRetries {
			break
		}
		backoff := r.Backoff << uint(i)
		log.Warn().Err(err).Str("symbol", q.Symbol).Int("attempt", i+1).
			Int("of", r.MaxRetries+1).Dur("backoff", backoff).Msg("fetch failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", r.MaxRetries+1, lastErr)
}
