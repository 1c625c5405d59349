package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware 创建一个基于令牌桶算法的限流中间件
//
// Rounds wait for a token instead of being rejected, so a long file list is
// paced rather than cut short.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next RoundFunc) RoundFunc {
		return func(ctx context.Context, command string) error {
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit: %w", err)
			}
			return next(ctx, command)
		}
	}
}
