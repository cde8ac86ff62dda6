package middleware

import (
	"context"
	"encoding/json"
	"errors"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when the local token bucket is empty.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit applies a token-bucket limit to outgoing calls, protecting a
// shared node endpoint from bursts. Calls over the limit fail fast rather
// than queue, so a saturated caller never piles up pending work.
func RateLimit(callsPerSecond float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(callsPerSecond), burst)
	return func(next CallFunc) CallFunc {
		return func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			if !limiter.Allow() {
				return nil, ErrRateLimited
			}
			return next(ctx, method, params)
		}
	}
}
