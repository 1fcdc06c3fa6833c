// Command tack is a minimal language server for Rust. It is normally
// spawned by an editor and spoken to over stdio; the flags select an
// alternative transport for editors that connect over a socket.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tack-ls/tack"
	"github.com/tack-ls/tack/transport"
)

var version = "0.1.0"

func main() {
	var (
		tcpAddr    string
		socketPath string
		pipeName   string
		wsAddr     string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "tack",
		Short:         "A minimal Rust language server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel)
			if err != nil {
				return err
			}

			t, err := pickTransport(tcpAddr, socketPath, pipeName, wsAddr, logger)
			if err != nil {
				return fmt.Errorf("opening transport: %w", err)
			}
			defer t.Close()

			srv := tack.NewServer(
				tack.WithLogger(logger),
				tack.WithVersion(version),
			)
			return tack.Serve(srv, tack.WithTransport(t))
		},
	}

	flags := root.Flags()
	flags.StringVar(&tcpAddr, "tcp", "", "listen for one client on a TCP address (host:port)")
	flags.StringVar(&socketPath, "socket", "", "listen for one client on a Unix domain socket")
	flags.StringVar(&pipeName, "pipe", "", "listen for one client on a named pipe")
	flags.StringVar(&wsAddr, "ws", "", "listen for one client over WebSocket (host:port)")
	flags.StringVar(&logLevel, "log-level", "warn", "log level: error, warn, info, or debug")
	root.MarkFlagsMutuallyExclusive("tcp", "socket", "pipe", "ws")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tack:", err)
		os.Exit(1)
	}
}

// pickTransport maps the transport flags onto a byte stream; with no flag
// set the server speaks over stdio.
func pickTransport(tcpAddr, socketPath, pipeName, wsAddr string, logger *slog.Logger) (transport.Transport, error) {
	switch {
	case tcpAddr != "":
		return transport.ListenTCP(tcpAddr)
	case socketPath != "":
		return transport.ListenSocket(socketPath)
	case pipeName != "":
		return transport.ListenPipe(pipeName)
	case wsAddr != "":
		return transport.ListenWebSocket(wsAddr, logger)
	default:
		return transport.Stdio(), nil
	}
}

// newLogger builds the stderr logger. Stdout carries the protocol, so logs
// must never go there.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "error":
		lvl = slog.LevelError
	case "warn":
		lvl = slog.LevelWarn
	case "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
