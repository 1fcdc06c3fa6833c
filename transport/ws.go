package transport

import (
	"log/slog"
	"net"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"
)

// ListenWebSocket serves an HTTP endpoint with WebSocket upgrade on addr
// and returns the first upgraded connection as a transport. Web-hosted
// editors (Monaco, Theia) connect this way.
func ListenWebSocket(addr string, logger *slog.Logger) (Transport, error) {
	connCh := make(chan *websocket.Conn, 1)
	handler := websocket.Handler(func(ws *websocket.Conn) {
		connCh <- ws
		// Keep the handler alive; Close tears the connection down.
		select {}
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{Handler: handler}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("websocket server stopped", "error", err)
		}
	}()

	return &wsTransport{conn: <-connCh, srv: srv}, nil
}

type wsTransport struct {
	conn *websocket.Conn
	srv  *http.Server

	rest      []byte // unread tail of the last frame
	closeOnce sync.Once
}

func (w *wsTransport) Read(p []byte) (int, error) {
	if len(w.rest) == 0 {
		var msg []byte
		if err := websocket.Message.Receive(w.conn, &msg); err != nil {
			return 0, err
		}
		w.rest = msg
	}
	n := copy(p, w.rest)
	w.rest = w.rest[n:]
	return n, nil
}

func (w *wsTransport) Write(p []byte) (int, error) {
	if err := websocket.Message.Send(w.conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsTransport) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.conn.Close()
		if w.srv != nil {
			w.srv.Close()
		}
	})
	return err
}
