package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Handler processes an incoming JSON-RPC request.
type Handler func(ctx context.Context, method string, params RawMessage) (result interface{}, err error)

// NotificationHandler processes an incoming JSON-RPC notification.
type NotificationHandler func(ctx context.Context, method string, params RawMessage)

// Conn is a bidirectional JSON-RPC 2.0 connection.
//
// Incoming requests and notifications are dispatched synchronously, one at a
// time in arrival order: document state transitions stay serialized without
// extra locking, and responses still correlate by id. Work that must not
// block the loop (an external checker run) is the handler's job to move off
// the loop. Outgoing notifications and server->client calls may be issued
// from any goroutine.
type Conn struct {
	codec   *Codec
	handler Handler
	notif   NotificationHandler
	logger  *slog.Logger

	pending   sync.Map // formatted id -> chan *Response
	nextID    atomic.Int64
	closeOnce sync.Once
	done      chan struct{}
}

// NewConn creates a connection using the given codec, request handler, and
// notification handler. A nil logger discards.
func NewConn(codec *Codec, handler Handler, notif NotificationHandler, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Conn{
		codec:   codec,
		handler: handler,
		notif:   notif,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Run reads and dispatches messages until the connection is closed or the
// stream errors. Malformed frames that yield no id are logged and dropped;
// sequencing errors for well-formed requests are the handler's to report.
func (c *Conn) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		default:
		}

		data, err := c.codec.Read()
		if err != nil {
			select {
			case <-c.done:
				return nil
			default:
				return fmt.Errorf("reading message: %w", err)
			}
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			c.logger.Warn("dropping malformed message", "error", err)
			continue
		}

		switch m := msg.(type) {
		case *Request:
			c.handleRequest(ctx, m)
		case *Notification:
			if c.notif != nil {
				c.notif(ctx, m.Method, m.Params)
			}
		case *Response:
			c.handleResponse(m)
		}
	}
}

func (c *Conn) handleRequest(ctx context.Context, req *Request) {
	result, err := c.handler(ctx, req.Method, req.Params)
	resp := NewResponse(req.ID, result, err)
	data, merr := json.Marshal(resp)
	if merr != nil {
		return
	}
	_ = c.codec.Write(data)
}

func (c *Conn) handleResponse(resp *Response) {
	if ch, ok := c.pending.LoadAndDelete(formatID(resp.ID)); ok {
		ch.(chan *Response) <- resp
	}
}

// Call sends a server->client request and waits for the response.
func (c *Conn) Call(ctx context.Context, method string, params interface{}) (*Response, error) {
	id := IntID(c.nextID.Add(1))
	paramsData, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	req := &Request{JSONRPC: Version, ID: id, Method: method, Params: paramsData}

	ch := make(chan *Response, 1)
	c.pending.Store(formatID(id), ch)
	defer c.pending.Delete(formatID(id))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := c.codec.Write(data); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("connection closed")
	}
}

// Notify sends a notification (no response expected). Safe to call from any
// goroutine, including the diagnostics publisher.
func (c *Conn) Notify(ctx context.Context, method string, params interface{}) error {
	paramsData, err := marshalParams(params)
	if err != nil {
		return err
	}

	notif := &Notification{JSONRPC: Version, Method: method, Params: paramsData}
	data, err := json.Marshal(notif)
	if err != nil {
		return err
	}
	return c.codec.Write(data)
}

// Close terminates the connection.
func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func marshalParams(v interface{}) (RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func formatID(id ID) string {
	switch v := id.Value().(type) {
	case int64:
		return fmt.Sprintf("n:%d", v)
	case string:
		return fmt.Sprintf("s:%s", v)
	default:
		return "null"
	}
}
