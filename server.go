package tack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tack-ls/tack/config"
	"github.com/tack-ls/tack/diagnostics"
	"github.com/tack-ls/tack/document"
	"github.com/tack-ls/tack/hover"
	"github.com/tack-ls/tack/inlay"
	"github.com/tack-ls/tack/jsonrpc"
	"github.com/tack-ls/tack/protocol"
)

// Server holds one editor session: the open-document store, the current
// configuration, and the diagnostics coordinator. A process serves exactly
// one session.
type Server struct {
	name    string
	version string
	logger  *slog.Logger

	docs *document.Store
	cfg  *config.Store

	// set during Serve
	conn  *jsonrpc.Conn
	proxy *ClientProxy
	coord *diagnostics.Coordinator

	// set during initialize
	mu         sync.Mutex
	root       string
	cfgWatcher *config.Watcher

	initialized bool
	shutdown    bool

	// exit is swappable so the test harness survives the exit notification.
	exit func(code int)
}

// NewServer creates a server with defaults applied and the given options.
func NewServer(opts ...Option) *Server {
	s := &Server{
		name:    "tack",
		version: "0.1.0",
		logger:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		docs:    document.NewStore(),
		cfg:     config.NewStore(config.Default()),
		exit:    os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Documents returns the open-document store.
func (s *Server) Documents() *document.Store { return s.docs }

// Config returns the configuration store.
func (s *Server) Config() *config.Store { return s.cfg }

// Logger returns the session logger.
func (s *Server) Logger() *slog.Logger { return s.logger }

// dispatch routes one incoming request. Called from the connection's read
// loop, so handlers here run strictly one at a time in arrival order.
func (s *Server) dispatch(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
	switch method {
	case protocol.MethodInitialize:
		return s.handleInitialize(params)
	case protocol.MethodShutdown:
		return s.handleShutdown()
	}

	if !s.initialized {
		return nil, &jsonrpc.Error{Code: jsonrpc.CodeServerNotInitialized, Message: "server not initialized"}
	}
	if s.shutdown {
		return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidRequest, Message: "server is shutting down"}
	}

	switch method {
	case protocol.MethodHover:
		return s.handleHover(params)
	case protocol.MethodInlayHint:
		return s.handleInlayHint(params)
	}

	return nil, &jsonrpc.Error{Code: jsonrpc.CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", method)}
}

// dispatchNotification routes one incoming notification. Failures are
// logged, never responded to: notifications have no response slot.
func (s *Server) dispatchNotification(ctx context.Context, method string, params jsonrpc.RawMessage) {
	switch method {
	case protocol.MethodInitialized:
		s.logger.Info("client initialized")
		return
	case protocol.MethodExit:
		s.handleExit()
		return
	case protocol.MethodSetTrace:
		return
	}

	if !s.initialized || s.shutdown {
		s.logger.Debug("dropping notification outside active session", "method", method)
		return
	}

	switch method {
	case protocol.MethodDidOpen:
		s.handleDidOpen(params)
	case protocol.MethodDidChange:
		s.handleDidChange(params)
	case protocol.MethodDidClose:
		s.handleDidClose(params)
	case protocol.MethodDidSave:
		s.handleDidSave(params)
	case protocol.MethodDidChangeConfiguration:
		s.handleDidChangeConfiguration(params)
	default:
		s.logger.Debug("unhandled notification", "method", method)
	}
}

func (s *Server) handleInitialize(params jsonrpc.RawMessage) (interface{}, error) {
	if s.initialized {
		return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidRequest, Message: "server already initialized"}
	}

	var p protocol.InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
	}

	root := workspaceRoot(&p)
	s.mu.Lock()
	s.root = root
	s.mu.Unlock()

	if root != "" {
		s.loadWorkspaceConfig(root)
	}

	s.initialized = true
	s.logger.Info("session initialized",
		"name", s.name,
		"version", s.version,
		"root", root,
	)

	return &protocol.InitializeResult{
		Capabilities: capabilities(),
		ServerInfo:   &protocol.ServerInfo{Name: s.name, Version: s.version},
	}, nil
}

// loadWorkspaceConfig reads .tack.toml from the workspace root and starts
// the hot-reload watcher. A broken config file never fails initialize; the
// defaults stand and the problem is logged.
func (s *Server) loadWorkspaceConfig(root string) {
	path := filepath.Join(root, config.FileName)

	cfg, err := config.Load(path, *s.cfg.Get())
	if err != nil {
		s.logger.Warn("config file ignored", "path", path, "error", err)
	}
	s.cfg.Swap(cfg)

	watcher, err := config.NewWatcher(path, s.logger, func() {
		reloaded, rerr := config.Load(path, config.Default())
		if rerr != nil {
			s.logger.Warn("config reload failed, keeping current", "path", path, "error", rerr)
			return
		}
		s.cfg.Swap(reloaded)
	})
	if err != nil {
		// Watching a not-yet-created file fails; config still loads on
		// the next didChangeConfiguration push.
		s.logger.Debug("config watcher not started", "path", path, "error", err)
		return
	}

	s.mu.Lock()
	s.cfgWatcher = watcher
	s.mu.Unlock()
}

func (s *Server) handleShutdown() (interface{}, error) {
	s.shutdown = true
	s.coord.Cancel()
	s.logger.Info("shutdown requested")
	return nil, nil
}

func (s *Server) handleExit() {
	code := 1
	if s.shutdown {
		code = 0
	}
	s.logger.Info("exiting", "code", code)

	s.mu.Lock()
	if s.cfgWatcher != nil {
		s.cfgWatcher.Close()
	}
	s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
	}
	s.exit(code)
}

func (s *Server) handleHover(params jsonrpc.RawMessage) (interface{}, error) {
	var p protocol.HoverParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
	}

	doc := s.docs.Get(p.TextDocument.URI)
	if doc == nil {
		return nil, &jsonrpc.Error{
			Code:    jsonrpc.CodeInvalidParams,
			Message: fmt.Sprintf("document not open: %s", p.TextDocument.URI),
		}
	}

	res := hover.Resolve(doc.Text(), p.Position)
	if res == nil {
		return nil, nil
	}
	rng := res.Range
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: res.Contents},
		Range:    &rng,
	}, nil
}

func (s *Server) handleInlayHint(params jsonrpc.RawMessage) (interface{}, error) {
	var p protocol.InlayHintParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
	}

	doc := s.docs.Get(p.TextDocument.URI)
	if doc == nil {
		return nil, &jsonrpc.Error{
			Code:    jsonrpc.CodeInvalidParams,
			Message: fmt.Sprintf("document not open: %s", p.TextDocument.URI),
		}
	}

	ix := inlay.NewIndex()
	for _, d := range s.docs.All() {
		ix.AddSource(d.Text())
	}
	return inlay.Compute(doc.Text(), ix, p.Range), nil
}

func (s *Server) handleDidOpen(params jsonrpc.RawMessage) {
	var p protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("malformed didOpen", "error", err)
		return
	}

	if reset := s.docs.Open(p.TextDocument); reset {
		s.logger.Warn("document re-opened, version counter reset",
			"uri", p.TextDocument.URI,
			"version", p.TextDocument.Version,
		)
	}
	s.logger.Debug("document opened", "uri", p.TextDocument.URI, "version", p.TextDocument.Version)
}

func (s *Server) handleDidChange(params jsonrpc.RawMessage) {
	var p protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("malformed didChange", "error", err)
		return
	}

	_, err := s.docs.Change(p.TextDocument.URI, p.TextDocument.Version, p.ContentChanges)
	switch {
	case errors.Is(err, document.ErrStaleVersion):
		s.logger.Warn("stale didChange dropped",
			"uri", p.TextDocument.URI,
			"version", p.TextDocument.Version,
		)
	case errors.Is(err, document.ErrUnknownDocument):
		s.logger.Warn("didChange for unopened document dropped", "uri", p.TextDocument.URI)
	}
}

func (s *Server) handleDidClose(params jsonrpc.RawMessage) {
	var p protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("malformed didClose", "error", err)
		return
	}

	if s.docs.Close(p.TextDocument.URI) {
		s.coord.Retract(p.TextDocument.URI)
	}
	s.logger.Debug("document closed", "uri", p.TextDocument.URI)
}

func (s *Server) handleDidSave(params jsonrpc.RawMessage) {
	var p protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("malformed didSave", "error", err)
		return
	}

	cfg := s.cfg.Get()
	if !cfg.CheckOnSave {
		s.logger.Debug("checkOnSave disabled, skipping", "uri", p.TextDocument.URI)
		return
	}

	s.mu.Lock()
	root := s.root
	s.mu.Unlock()
	if root == "" {
		s.logger.Debug("no workspace root, skipping check")
		return
	}

	s.coord.Trigger(root, cfg.CheckCommand)
}

func (s *Server) handleDidChangeConfiguration(params jsonrpc.RawMessage) {
	var p protocol.DidChangeConfigurationParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.logger.Warn("malformed didChangeConfiguration", "error", err)
		return
	}

	updated := s.cfg.Get().ApplySettings(p.Settings)
	s.cfg.Swap(updated)
	s.logger.Debug("settings applied",
		"checkOnSave", updated.CheckOnSave,
		"logLevel", updated.LogLevel,
	)
}

// capabilities is the static capability set: incremental sync with
// open/close and save notifications, hover, and inlay hints.
func capabilities() protocol.ServerCapabilities {
	return protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.SyncIncremental,
			Save:      &protocol.SaveOptions{},
		},
		HoverProvider:     true,
		InlayHintProvider: true,
	}
}

// workspaceRoot resolves the session root from initialize params, trying
// workspaceFolders, then rootUri, then the deprecated rootPath.
func workspaceRoot(p *protocol.InitializeParams) string {
	if len(p.WorkspaceFolders) > 0 {
		if path, err := document.URIToPath(p.WorkspaceFolders[0].URI); err == nil {
			return path
		}
	}
	if p.RootURI != nil {
		if path, err := document.URIToPath(*p.RootURI); err == nil {
			return path
		}
	}
	if p.RootPath != nil {
		return *p.RootPath
	}
	return ""
}
