// Package middleware provides composable interceptors around the client's
// call path, chained in an onion model:
//
//	Chain(A, B, C)(call) → A(B(C(call)))
//	Execution order: A.before → B.before → C.before → call → C.after → B.after → A.after
package middleware

import (
	"context"
	"encoding/json"
)

// CallFunc performs one JSON-RPC call and returns the raw result.
type CallFunc func(ctx context.Context, method string, params []any) (json.RawMessage, error)

// Middleware wraps a CallFunc with extra behavior.
type Middleware func(next CallFunc) CallFunc

// Chain combines multiple middlewares into one. The first middleware listed
// is the outermost layer.
func Chain(middlewares ...Middleware) Middleware {
	return func(next CallFunc) CallFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
