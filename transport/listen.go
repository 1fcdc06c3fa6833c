package transport

import (
	"net"
	"os"
)

// connTransport wraps a single net.Conn, running an optional cleanup after
// close (socket file removal).
type connTransport struct {
	conn    net.Conn
	cleanup func()
}

func (c *connTransport) Read(p []byte) (int, error)  { return c.conn.Read(p) }
func (c *connTransport) Write(p []byte) (int, error) { return c.conn.Write(p) }

func (c *connTransport) Close() error {
	err := c.conn.Close()
	if c.cleanup != nil {
		c.cleanup()
	}
	return err
}

// acceptOne takes the first connection off a fresh listener and closes the
// listener. A language server serves exactly one editor per process.
func acceptOne(network, addr string, cleanup func()) (Transport, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	return &connTransport{conn: conn, cleanup: cleanup}, nil
}

// ListenTCP waits for a single TCP client on addr.
func ListenTCP(addr string) (Transport, error) {
	return acceptOne("tcp", addr, nil)
}

// ListenSocket waits for a single client on a Unix domain socket, removing
// any stale socket file first and cleaning it up on close.
func ListenSocket(path string) (Transport, error) {
	os.Remove(path)
	return acceptOne("unix", path, func() { os.Remove(path) })
}

// ListenPipe is the named-pipe transport editors request with --pipe. On
// Unix it is a domain socket under a pipe-style path.
func ListenPipe(name string) (Transport, error) {
	return ListenSocket(name)
}

// DialPipe connects to a pipe/socket the editor already listens on.
func DialPipe(name string) (Transport, error) {
	conn, err := net.Dial("unix", name)
	if err != nil {
		return nil, err
	}
	return &connTransport{conn: conn}, nil
}
