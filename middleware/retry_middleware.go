package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"subrpc/transport"
)

// Retry re-issues a failed call up to maxRetries times with exponential
// delay between attempts. Only errors accepted by shouldRetry are retried;
// pass nil for the default, which retries timeouts and connection failures.
//
// Retrying is opt-in: a retried call is a new request with a new id, so it
// must only be used for idempotent methods.
func Retry(maxRetries int, baseDelay time.Duration, shouldRetry func(error) bool, log *zap.Logger) Middleware {
	if shouldRetry == nil {
		shouldRetry = defaultShouldRetry
	}
	return func(next CallFunc) CallFunc {
		return func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			result, err := next(ctx, method, params)
			for i := 0; i < maxRetries && err != nil && shouldRetry(err); i++ {
				log.Info("retrying rpc call",
					zap.String("method", method),
					zap.Int("attempt", i+1),
					zap.Error(err))
				select {
				case <-time.After(baseDelay * time.Duration(1<<i)):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				result, err = next(ctx, method, params)
			}
			return result, err
		}
	}
}

func defaultShouldRetry(err error) bool {
	var cerr *transport.ConnectionError
	if errors.As(err, &cerr) {
		return true
	}
	return errors.Is(err, transport.ErrTimeout)
}
