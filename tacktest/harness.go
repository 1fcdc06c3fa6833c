// Package tacktest drives a full tack session over an in-memory transport:
// a test client with typed helpers for the methods the server speaks, plus
// accessors for the notifications it pushed.
package tacktest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tack-ls/tack"
	"github.com/tack-ls/tack/jsonrpc"
	"github.com/tack-ls/tack/protocol"
	"github.com/tack-ls/tack/transport"
)

// Client is an in-memory LSP client bound to a server running in a
// background goroutine. The session is initialized before NewClient
// returns and torn down when the test finishes.
type Client struct {
	t    testing.TB
	conn *jsonrpc.Conn
	root string
	init *protocol.InitializeResult

	mu            sync.Mutex
	notifications []notification
	exitCode      *int
}

type notification struct {
	Method string
	Params json.RawMessage
}

// NewClient starts srv over an in-memory pipe and initializes the session
// with a fresh temporary directory as the workspace root.
func NewClient(t testing.TB, srv *tack.Server) *Client {
	return NewClientWithRoot(t, srv, t.TempDir())
}

// NewClientWithRoot is NewClient with an explicit workspace root.
func NewClientWithRoot(t testing.TB, srv *tack.Server, root string) *Client {
	clientSide, serverSide := transport.Pipe()

	c := &Client{t: t, root: root}

	// The exit notification must not kill the test process.
	tack.WithExitFunc(func(code int) {
		c.mu.Lock()
		c.exitCode = &code
		c.mu.Unlock()
	})(srv)

	go func() {
		_ = tack.Serve(srv, tack.WithTransport(serverSide))
	}()

	codec := jsonrpc.NewCodec(clientSide, clientSide)
	c.conn = jsonrpc.NewConn(codec,
		func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
			return nil, &jsonrpc.Error{Code: jsonrpc.CodeMethodNotFound, Message: "client handles no requests"}
		},
		func(ctx context.Context, method string, params jsonrpc.RawMessage) {
			c.mu.Lock()
			c.notifications = append(c.notifications, notification{Method: method, Params: params})
			c.mu.Unlock()
		},
		nil,
	)

	go func() { _ = c.conn.Run(context.Background()) }()

	t.Cleanup(func() {
		c.conn.Close()
		clientSide.Close()
		serverSide.Close()
	})

	c.initialize()
	return c
}

// Root returns the workspace root the session was initialized with.
func (c *Client) Root() string { return c.root }

// InitializeResult returns the handshake result captured at startup.
func (c *Client) InitializeResult() *protocol.InitializeResult { return c.init }

// initialize performs the handshake; NewClient runs it exactly once.
func (c *Client) initialize() {
	c.t.Helper()
	uri := protocol.DocumentURI(FileURI(c.root))
	params := &protocol.InitializeParams{
		RootURI:          &uri,
		WorkspaceFolders: []protocol.WorkspaceFolder{{URI: uri, Name: "test"}},
	}
	var result protocol.InitializeResult
	c.call(protocol.MethodInitialize, params, &result)
	c.notify(protocol.MethodInitialized, &protocol.InitializedParams{})
	c.init = &result
}

// Open sends didOpen for a Rust document at version 1.
func (c *Client) Open(uri, text string) {
	c.t.Helper()
	c.notify(protocol.MethodDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        protocol.DocumentURI(uri),
			LanguageID: "rust",
			Version:    1,
			Text:       text,
		},
	})
	c.settle()
}

// OpenVersion is Open with an explicit starting version.
func (c *Client) OpenVersion(uri string, version int32, text string) {
	c.t.Helper()
	c.notify(protocol.MethodDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        protocol.DocumentURI(uri),
			LanguageID: "rust",
			Version:    version,
			Text:       text,
		},
	})
	c.settle()
}

// Change sends a full-replacement didChange.
func (c *Client) Change(uri string, version int32, text string) {
	c.t.Helper()
	c.notify(protocol.MethodDidChange, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri)},
			Version:                version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: text}},
	})
	c.settle()
}

// ChangeIncremental sends a didChange batch of range edits.
func (c *Client) ChangeIncremental(uri string, version int32, changes ...protocol.TextDocumentContentChangeEvent) {
	c.t.Helper()
	c.notify(protocol.MethodDidChange, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri)},
			Version:                version,
		},
		ContentChanges: changes,
	})
	c.settle()
}

// Close sends didClose.
func (c *Client) Close(uri string) {
	c.t.Helper()
	c.notify(protocol.MethodDidClose, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri)},
	})
	c.settle()
}

// Save sends didSave.
func (c *Client) Save(uri string) {
	c.t.Helper()
	c.notify(protocol.MethodDidSave, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri)},
	})
	c.settle()
}

// ChangeConfiguration pushes an editor settings blob.
func (c *Client) ChangeConfiguration(settings string) {
	c.t.Helper()
	c.notify(protocol.MethodDidChangeConfiguration, &protocol.DidChangeConfigurationParams{
		Settings: json.RawMessage(settings),
	})
	c.settle()
}

// Hover sends a hover request. A null result comes back as nil.
func (c *Client) Hover(uri string, pos protocol.Position) (*protocol.Hover, error) {
	c.t.Helper()
	resp, err := c.rawCall(protocol.MethodHover, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri)},
			Position:     pos,
		},
	})
	if err != nil {
		return nil, err
	}
	if isNull(resp) {
		return nil, nil
	}
	var result protocol.Hover
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InlayHints sends an inlayHint request for the given range.
func (c *Client) InlayHints(uri string, rng protocol.Range) ([]protocol.InlayHint, error) {
	c.t.Helper()
	resp, err := c.rawCall(protocol.MethodInlayHint, &protocol.InlayHintParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(uri)},
		Range:        rng,
	})
	if err != nil {
		return nil, err
	}
	if isNull(resp) {
		return nil, nil
	}
	var hints []protocol.InlayHint
	if err := json.Unmarshal(resp, &hints); err != nil {
		return nil, err
	}
	return hints, nil
}

// Shutdown sends the shutdown request.
func (c *Client) Shutdown() {
	c.t.Helper()
	c.call(protocol.MethodShutdown, nil, nil)
}

// Exit sends the exit notification and waits for the server's exit hook.
func (c *Client) Exit() {
	c.t.Helper()
	c.notify(protocol.MethodExit, nil)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.ExitCode() != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.t.Fatal("server never exited")
}

// ExitCode returns the code passed to the server's exit function, or nil if
// exit has not been observed.
func (c *Client) ExitCode() *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitCode
}

// Diagnostics returns every publishDiagnostics received so far, in order.
func (c *Client) Diagnostics() []protocol.PublishDiagnosticsParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []protocol.PublishDiagnosticsParams
	for _, n := range c.notifications {
		if n.Method != protocol.MethodPublishDiagnostics {
			continue
		}
		var p protocol.PublishDiagnosticsParams
		if json.Unmarshal(n.Params, &p) == nil {
			out = append(out, p)
		}
	}
	return out
}

// LatestDiagnostics returns the most recent publication for uri, or nil if
// none has arrived.
func (c *Client) LatestDiagnostics(uri string) []protocol.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.notifications) - 1; i >= 0; i-- {
		n := c.notifications[i]
		if n.Method != protocol.MethodPublishDiagnostics {
			continue
		}
		var p protocol.PublishDiagnosticsParams
		if json.Unmarshal(n.Params, &p) == nil && string(p.URI) == uri {
			return p.Diagnostics
		}
	}
	return nil
}

// WaitForDiagnostics blocks until a publication for uri arrives or the
// timeout expires, returning the latest one.
func (c *Client) WaitForDiagnostics(uri string, timeout time.Duration) []protocol.Diagnostic {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		for i := len(c.notifications) - 1; i >= 0; i-- {
			n := c.notifications[i]
			if n.Method != protocol.MethodPublishDiagnostics {
				continue
			}
			var p protocol.PublishDiagnosticsParams
			if json.Unmarshal(n.Params, &p) == nil && string(p.URI) == uri {
				c.mu.Unlock()
				return p.Diagnostics
			}
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	c.t.Fatalf("timed out waiting for diagnostics on %s", uri)
	return nil
}

func (c *Client) call(method string, params, result interface{}) {
	c.t.Helper()
	resp, err := c.rawCall(method, params)
	if err != nil {
		c.t.Fatalf("call %s failed: %v", method, err)
	}
	if result != nil && !isNull(resp) {
		if err := json.Unmarshal(resp, result); err != nil {
			c.t.Fatalf("unmarshalling %s result: %v", method, err)
		}
	}
}

func (c *Client) rawCall(method string, params interface{}) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.conn.Call(ctx, method, params)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

func (c *Client) notify(method string, params interface{}) {
	c.t.Helper()
	if err := c.conn.Notify(context.Background(), method, params); err != nil {
		c.t.Fatalf("notify %s failed: %v", method, err)
	}
}

// settle gives the server's read loop time to consume a notification before
// the test observes state.
func (c *Client) settle() {
	time.Sleep(10 * time.Millisecond)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
