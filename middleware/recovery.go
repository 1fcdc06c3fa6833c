package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/tack-ls/tack/jsonrpc"
)

// Recovery converts handler panics into internal-error responses. A panic
// in one request must not take down the session.
func Recovery(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, method string, params jsonrpc.RawMessage) (result interface{}, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panicked",
						"method", method,
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
					result = nil
					err = &jsonrpc.Error{
						Code:    jsonrpc.CodeInternalError,
						Message: fmt.Sprintf("internal error: %v", r),
					}
				}
			}()
			return next(ctx, method, params)
		}
	}
}
