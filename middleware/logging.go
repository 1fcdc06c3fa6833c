package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/tack-ls/tack/jsonrpc"
)

// Logging logs each dispatched method with its duration. Failures log at
// error level, successes at debug.
func Logging(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
			start := time.Now()
			result, err := next(ctx, method, params)

			if err != nil {
				logger.Error("request failed",
					"method", method,
					"duration", time.Since(start),
					"error", err,
				)
			} else {
				logger.Debug("request handled",
					"method", method,
					"duration", time.Since(start),
				)
			}
			return result, err
		}
	}
}
