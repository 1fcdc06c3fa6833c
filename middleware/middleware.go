// Package middleware wraps tack's JSON-RPC dispatch with cross-cutting
// behavior: request logging, panic recovery, and per-method statistics.
package middleware

import (
	"context"

	"github.com/tack-ls/tack/jsonrpc"
)

// Handler processes one JSON-RPC method call.
type Handler func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error)

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// Chain composes middleware left to right: the first argument becomes the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
