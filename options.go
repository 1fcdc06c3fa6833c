package tack

import (
	"log/slog"

	"github.com/tack-ls/tack/config"
	"github.com/tack-ls/tack/middleware"
	"github.com/tack-ls/tack/transport"
)

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger replaces the default stderr logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version reported in the initialize result.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithConfig sets the initial configuration, before any workspace file or
// editor settings are applied.
func WithConfig(cfg config.Config) Option {
	return func(s *Server) { s.cfg = config.NewStore(cfg) }
}

// WithExitFunc replaces os.Exit for the exit notification. The test harness
// uses this to keep the process alive.
func WithExitFunc(exit func(code int)) Option {
	return func(s *Server) { s.exit = exit }
}

// ServeOption configures a single Serve call.
type ServeOption func(*serveConfig)

type serveConfig struct {
	transport transport.Transport
	stats     *middleware.Stats
}

// WithTransport selects the byte stream to serve on. Defaults to stdio.
func WithTransport(t transport.Transport) ServeOption {
	return func(c *serveConfig) { c.transport = t }
}

// WithStats collects per-method dispatch counters into stats.
func WithStats(stats *middleware.Stats) ServeOption {
	return func(c *serveConfig) { c.stats = stats }
}
