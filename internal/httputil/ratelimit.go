// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every request to one service.
// A nil *Limiter never blocks.
type Limiter struct {
	l *rate.Limiter
}

// PerSecond returns a limiter allowing n requests per second, or nil when
// n is not positive.
func PerSecond(n float64) *Limiter {
	if n <= 0 {
		return nil
	}
	return &Limiter{l: rate.NewLimiter(rate.Limit(n), max(1, int(n)))}
}

// PerMinute returns a limiter allowing n requests per minute, or nil when
// n is not positive.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		return nil
	}
	return &Limiter{l: rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)}
}

// Wait blocks until a request may proceed or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	return l.l.Wait(ctx)
}

// Do is DoWithRetry with every attempt, retries included, passing
// through the limiter first.
func (l *Limiter) Do(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	return do(ctx, client, req, maxRetries, l)
}
