package transport

import "io"

// Pipe returns a connected in-memory transport pair. Bytes written to the
// client side are read from the server side and vice versa. Used by the
// test harness to drive a full session without a real socket.
func Pipe() (client, server Transport) {
	cr, sw := io.Pipe()
	sr, cw := io.Pipe()
	return &memoryTransport{r: cr, w: cw}, &memoryTransport{r: sr, w: sw}
}

type memoryTransport struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (m *memoryTransport) Read(p []byte) (int, error)  { return m.r.Read(p) }
func (m *memoryTransport) Write(p []byte) (int, error) { return m.w.Write(p) }

func (m *memoryTransport) Close() error {
	m.w.Close()
	return m.r.Close()
}
