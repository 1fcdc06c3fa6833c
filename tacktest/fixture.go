package tacktest

import (
	"fmt"
	"strings"

	"github.com/tack-ls/tack/protocol"
)

// FileURI builds a file:// URI from a path.
func FileURI(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("file://%s", path)
}

// Pos builds a zero-based position.
func Pos(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

// Rng builds a range from start and end coordinates.
func Rng(startLine, startChar, endLine, endChar uint32) protocol.Range {
	return protocol.Range{Start: Pos(startLine, startChar), End: Pos(endLine, endChar)}
}

// Edit builds one incremental content change.
func Edit(rng protocol.Range, text string) protocol.TextDocumentContentChangeEvent {
	return protocol.TextDocumentContentChangeEvent{Range: &rng, Text: text}
}
