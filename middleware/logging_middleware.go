package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LoggingMiddleware records every round at debug level. A failed round is
// logged too, but its error is returned to the caller, who reports it.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next RoundFunc) RoundFunc {
		return func(ctx context.Context, command string) error {
			start := time.Now()
			err := next(ctx, command)
			duration := time.Since(start)
			if err != nil {
				logger.Debug("round failed", zap.String("command", command), zap.Duration("duration", duration), zap.Error(err))
				return err
			}
			logger.Debug("round done", zap.String("command", command), zap.Duration("duration", duration))
			return nil
		}
	}
}
