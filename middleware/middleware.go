// Package middleware wraps client rounds the way an onion wraps its core:
//
//	Chain(A, B, C)(round) → A(B(C(round)))
//
// A round is one request/response exchange with the editor.
package middleware

import "context"

// RoundFunc performs one round for an Ex command.
type RoundFunc func(ctx context.Context, command string) error

type Middleware func(next RoundFunc) RoundFunc

// Chain 将多个中间件组合成一个中间件
func Chain(middlewares ...Middleware) Middleware {
	return func(next RoundFunc) RoundFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
