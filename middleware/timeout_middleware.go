package middleware

import (
	"context"
	"time"
)

// TimeOutMiddleware puts a deadline on every round. The round itself runs on
// the calling goroutine; the client turns the deadline into a stream deadline,
// so an expired round fails with an i/o error instead of being abandoned.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next RoundFunc) RoundFunc {
		return func(ctx context.Context, command string) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, command)
		}
	}
}
