package middleware

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Logging records every call with its method, duration, and outcome.
func Logging(log *zap.Logger) Middleware {
	return func(next CallFunc) CallFunc {
		return func(ctx context.Context, method string, params []any) (json.RawMessage, error) {
			start := time.Now()
			result, err := next(ctx, method, params)
			if err != nil {
				log.Warn("rpc call failed",
					zap.String("method", method),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err))
				return result, err
			}
			log.Debug("rpc call",
				zap.String("method", method),
				zap.Duration("duration", time.Since(start)))
			return result, nil
		}
	}
}
