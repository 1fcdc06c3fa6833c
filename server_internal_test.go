package tack

import (
	"context"
	"errors"
	"testing"

	"github.com/tack-ls/tack/jsonrpc"
	"github.com/tack-ls/tack/protocol"
)

func TestDispatchRequiresInitialize(t *testing.T) {
	s := NewServer()

	_, err := s.dispatch(context.Background(), protocol.MethodHover, nil)
	var rpcErr *jsonrpc.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc.CodeServerNotInitialized {
		t.Errorf("pre-initialize request: got %v, want server-not-initialized", err)
	}
}

func TestDispatchAfterShutdownRejected(t *testing.T) {
	s := NewServer()
	s.initialized = true
	s.shutdown = true

	_, err := s.dispatch(context.Background(), protocol.MethodHover, nil)
	var rpcErr *jsonrpc.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc.CodeInvalidRequest {
		t.Errorf("post-shutdown request: got %v, want invalid-request", err)
	}
}

func TestDispatchUnknownMethod(t *testing.T) {
	s := NewServer()
	s.initialized = true

	_, err := s.dispatch(context.Background(), "textDocument/rename", nil)
	var rpcErr *jsonrpc.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != jsonrpc.CodeMethodNotFound {
		t.Errorf("unknown method: got %v, want method-not-found", err)
	}
}

func TestExitCodeDependsOnShutdown(t *testing.T) {
	var code int
	s := NewServer(WithExitFunc(func(c int) { code = c }))

	s.handleExit()
	if code != 1 {
		t.Errorf("exit without shutdown: code %d, want 1", code)
	}

	s.shutdown = true
	s.handleExit()
	if code != 0 {
		t.Errorf("exit after shutdown: code %d, want 0", code)
	}
}

func TestWorkspaceRootResolution(t *testing.T) {
	folderURI := protocol.DocumentURI("file:///ws/from-folder")
	rootURI := protocol.DocumentURI("file:///ws/from-root-uri")
	rootPath := "/ws/from-root-path"

	tests := []struct {
		name   string
		params protocol.InitializeParams
		want   string
	}{
		{
			"workspace folders win",
			protocol.InitializeParams{
				WorkspaceFolders: []protocol.WorkspaceFolder{{URI: folderURI}},
				RootURI:          &rootURI,
			},
			"/ws/from-folder",
		},
		{
			"root uri second",
			protocol.InitializeParams{RootURI: &rootURI, RootPath: &rootPath},
			"/ws/from-root-uri",
		},
		{
			"deprecated root path last",
			protocol.InitializeParams{RootPath: &rootPath},
			"/ws/from-root-path",
		},
		{
			"nothing given",
			protocol.InitializeParams{},
			"",
		},
	}
	for _, tt := range tests {
		if got := workspaceRoot(&tt.params); got != tt.want {
			t.Errorf("%s: workspaceRoot = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestStaticCapabilities(t *testing.T) {
	caps := capabilities()
	if !caps.HoverProvider || !caps.InlayHintProvider {
		t.Error("hover and inlay hint providers must be advertised")
	}
	sync := caps.TextDocumentSync
	if sync == nil || !sync.OpenClose || sync.Change != protocol.SyncIncremental || sync.Save == nil {
		t.Errorf("sync capabilities = %+v", sync)
	}
}
