package tack

import (
	"context"
	"fmt"

	"github.com/tack-ls/tack/diagnostics"
	"github.com/tack-ls/tack/jsonrpc"
	mw "github.com/tack-ls/tack/middleware"
	"github.com/tack-ls/tack/transport"
)

// Serve runs the session over the given transport (stdio if none is given)
// until the stream closes or the client sends exit. Blocks for the life of
// the session.
func Serve(s *Server, opts ...ServeOption) error {
	cfg := &serveConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.transport == nil {
		cfg.transport = transport.Stdio()
	}

	codec := jsonrpc.NewCodec(cfg.transport, cfg.transport)

	chain := buildChain(s, cfg)
	handler := jsonrpc.Handler(chain(mw.Handler(s.dispatch)))

	notifInner := chain(func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
		s.dispatchNotification(ctx, method, params)
		return nil, nil
	})
	notifHandler := func(ctx context.Context, method string, params jsonrpc.RawMessage) {
		notifInner(ctx, method, params)
	}

	conn := jsonrpc.NewConn(codec, handler, notifHandler, s.logger)
	s.conn = conn
	s.proxy = newClientProxy(conn)
	s.coord = diagnostics.NewCoordinator(s.docs, s.proxy.PublishDiagnostics, s.logger)

	s.logger.Info("server starting", "name", s.name, "version", s.version)

	if err := conn.Run(context.Background()); err != nil {
		return fmt.Errorf("session ended: %w", err)
	}
	return nil
}

func buildChain(s *Server, cfg *serveConfig) mw.Middleware {
	mws := []mw.Middleware{
		mw.Recovery(s.logger),
		mw.Logging(s.logger),
	}
	if cfg.stats != nil {
		mws = append(mws, mw.Measure(cfg.stats))
	}
	return mw.Chain(mws...)
}
