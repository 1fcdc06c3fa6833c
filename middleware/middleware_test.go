package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tack-ls/tack/jsonrpc"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
				order = append(order, name)
				return next(ctx, method, params)
			}
		}
	}

	h := Chain(tag("outer"), tag("inner"))(func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
		order = append(order, "handler")
		return nil, nil
	})
	_, err := h(context.Background(), "m", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRecoveryConvertsPanic(t *testing.T) {
	h := Recovery(discardLogger())(func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
		panic("handler exploded")
	})

	result, err := h(context.Background(), "textDocument/hover", nil)
	assert.Nil(t, result)

	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeInternalError, rpcErr.Code)
	assert.Contains(t, rpcErr.Message, "handler exploded")
}

func TestRecoveryPassesThroughNormalFlow(t *testing.T) {
	want := errors.New("expected failure")
	h := Recovery(discardLogger())(func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
		return "ok", want
	})

	result, err := h(context.Background(), "m", nil)
	assert.Equal(t, "ok", result)
	assert.Equal(t, want, err)
}

func TestMeasureCounts(t *testing.T) {
	stats := NewStats()
	fail := errors.New("boom")
	h := Measure(stats)(func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
		if method == "bad" {
			return nil, fail
		}
		return nil, nil
	})

	for i := 0; i < 3; i++ {
		h(context.Background(), "good", nil)
	}
	h(context.Background(), "bad", nil)

	good := stats.Method("good")
	assert.Equal(t, int64(3), good.Count)
	assert.Equal(t, int64(0), good.Errors)

	bad := stats.Method("bad")
	assert.Equal(t, int64(1), bad.Count)
	assert.Equal(t, int64(1), bad.Errors)

	snap := stats.Snapshot()
	assert.Len(t, snap, 2)
	assert.Zero(t, stats.Method("never"))
}
