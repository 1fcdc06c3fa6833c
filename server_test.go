package tack_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tack-ls/tack"
	"github.com/tack-ls/tack/jsonrpc"
	"github.com/tack-ls/tack/protocol"
	"github.com/tack-ls/tack/tacktest"
)

func quietServer(opts ...tack.Option) *tack.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tack.NewServer(append([]tack.Option{tack.WithLogger(logger)}, opts...)...)
}

func checkerSettings(file, message string) string {
	script := fmt.Sprintf(
		`printf '%%s\n' '{"reason":"compiler-message","message":{"level":"error","message":%q,"spans":[{"file_name":%q,"is_primary":true,"line_start":1,"line_end":1,"column_start":1,"column_end":2}]}}'`,
		message, file)
	return fmt.Sprintf(`{"tack":{"checkCommand":["sh","-c",%q]}}`, script)
}

func TestInitializeReportsCapabilities(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	result := c.InitializeResult()

	assert.True(t, result.Capabilities.HoverProvider)
	assert.True(t, result.Capabilities.InlayHintProvider)
	require.NotNil(t, result.Capabilities.TextDocumentSync)
	assert.Equal(t, protocol.SyncIncremental, result.Capabilities.TextDocumentSync.Change)
}

func TestHoverOverOpenDocument(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	uri := tacktest.FileURI(c.Root() + "/src/main.rs")
	c.Open(uri, "fn greet() -> String {\n    String::new()\n}\n\nfn main() {\n    greet();\n}\n")

	hover, err := c.Hover(uri, tacktest.Pos(5, 5))
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.Value, "fn greet() -> String {")
}

func TestHoverMissReturnsNull(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	uri := tacktest.FileURI(c.Root() + "/src/main.rs")
	c.Open(uri, "fn main() {}\n")

	hover, err := c.Hover(uri, tacktest.Pos(0, 11)) // inside the braces
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestHoverUnopenedDocumentFails(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())

	_, err := c.Hover(tacktest.FileURI(c.Root()+"/nope.rs"), tacktest.Pos(0, 0))
	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeInvalidParams, rpcErr.Code)
}

func TestInlayHintsOverOpenDocument(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	uri := tacktest.FileURI(c.Root() + "/src/main.rs")
	c.Open(uri, "struct Widget {}\n\nfn main() {\n    let w = Widget::new();\n}\n")

	hints, err := c.InlayHints(uri, tacktest.Rng(0, 0, 10, 0))
	require.NoError(t, err)
	require.Len(t, hints, 1)
	assert.Equal(t, ": Widget", hints[0].Label)
	assert.Equal(t, protocol.Position{Line: 3, Character: 9}, hints[0].Position)
}

func TestIncrementalChangeVisibleToHover(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	uri := tacktest.FileURI(c.Root() + "/src/main.rs")
	c.Open(uri, "fn old_name() {}\n")

	c.ChangeIncremental(uri, 2, tacktest.Edit(tacktest.Rng(0, 3, 0, 11), "new_name"))

	hover, err := c.Hover(uri, tacktest.Pos(0, 5))
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.Value, "fn new_name() {}")
}

func TestStaleChangeIsIgnored(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	uri := tacktest.FileURI(c.Root() + "/src/main.rs")
	c.OpenVersion(uri, 5, "fn keep() {}\n")

	// Same version: must be dropped without touching the text.
	c.Change(uri, 5, "fn replaced() {}\n")

	hover, err := c.Hover(uri, tacktest.Pos(0, 4))
	require.NoError(t, err)
	require.NotNil(t, hover)
	assert.Contains(t, hover.Contents.Value, "fn keep() {}")
}

func TestSaveTriggersDiagnostics(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	uri := tacktest.FileURI(c.Root() + "/src/main.rs")
	c.Open(uri, "fn main() {}\n")

	c.ChangeConfiguration(checkerSettings("src/main.rs", "mismatched types"))
	c.Save(uri)

	diags := c.WaitForDiagnostics(uri, 5*time.Second)
	require.Len(t, diags, 1)
	assert.Equal(t, "mismatched types", diags[0].Message)
	assert.Equal(t, protocol.SeverityError, diags[0].Severity)
}

func TestCheckOnSaveDisabled(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	uri := tacktest.FileURI(c.Root() + "/src/main.rs")
	c.Open(uri, "fn main() {}\n")

	c.ChangeConfiguration(`{"tack":{"checkOnSave":false}}`)
	c.Save(uri)

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, c.Diagnostics())
}

func TestCloseRetractsDiagnostics(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	uri := tacktest.FileURI(c.Root() + "/src/main.rs")
	c.Open(uri, "fn main() {}\n")

	c.ChangeConfiguration(checkerSettings("src/main.rs", "broken"))
	c.Save(uri)
	diags := c.WaitForDiagnostics(uri, 5*time.Second)
	require.NotEmpty(t, diags)

	c.Close(uri)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if latest := c.LatestDiagnostics(uri); latest != nil && len(latest) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("close did not retract diagnostics")
}

func TestShutdownThenExit(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	c.Shutdown()

	// Requests after shutdown are refused.
	_, err := c.Hover(tacktest.FileURI(c.Root()+"/a.rs"), tacktest.Pos(0, 0))
	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeInvalidRequest, rpcErr.Code)

	c.Exit()
	require.NotNil(t, c.ExitCode())
	assert.Equal(t, 0, *c.ExitCode())
}

func TestExitWithoutShutdown(t *testing.T) {
	c := tacktest.NewClient(t, quietServer())
	c.Exit()
	require.NotNil(t, c.ExitCode())
	assert.Equal(t, 1, *c.ExitCode())
}
