// Package transport provides the byte streams tack speaks JSON-RPC over:
// stdio (the default for editors spawning the server), TCP, Unix domain
// sockets / named pipes, WebSocket, and an in-memory pair for tests.
package transport

import (
	"io"
	"os"
)

// Transport is a bidirectional byte stream carrying framed JSON-RPC.
type Transport interface {
	io.ReadWriteCloser
}

type stdio struct{}

// Stdio returns the process's stdin/stdout as a transport. Closing it
// closes stdout only: stdin belongs to the parent process.
func Stdio() Transport {
	return stdio{}
}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return os.Stdout.Close() }
