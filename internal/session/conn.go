// internal/session/conn.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/clashkings/internal/protocol"
)

// Subprotocol is negotiated on every room websocket.
const Subprotocol = "clashkings"

// Conn is one bidirectional message stream between a client and the host.
type Conn interface {
	Read(ctx context.Context) (protocol.Envelope, error)
	Write(ctx context.Context, env protocol.Envelope) error
	Close() error
}

// Pinger is implemented by transports with their own keepalive.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dialer opens a Conn to a room address.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// WSConn adapts a coder/websocket connection to Conn using JSON text frames.
type WSConn struct {
	c *websocket.Conn
}

// NewWSConn wraps an accepted or dialed websocket.
func NewWSConn(c *websocket.Conn) *WSConn {
	return &WSConn{c: c}
}

func (w *WSConn) Read(ctx context.Context) (protocol.Envelope, error) {
	for {
		typ, data, err := w.c.Read(ctx)
		if err != nil {
			return protocol.Envelope{}, err
		}
		if typ != websocket.MessageText {
			continue
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return protocol.Envelope{}, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		return env, nil
	}
}

func (w *WSConn) Write(ctx context.Context, env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", env.Type, err)
	}
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w *WSConn) Ping(ctx context.Context) error {
	return w.c.Ping(ctx)
}

func (w *WSConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "session closed")
}

// WSDialer dials rooms served by handlers.RoomWSHandler under BaseURL.
type WSDialer struct {
	BaseURL string // e.g. ws://localhost:8080
	Header  http.Header
}

func (d WSDialer) Dial(ctx context.Context, address string) (Conn, error) {
	u := strings.TrimRight(d.BaseURL, "/") + "/room/ws/" + url.PathEscape(address)
	c, resp, err := websocket.Dial(ctx, u, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
		HTTPHeader:   d.Header,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, address)
		}
		return nil, err
	}
	return NewWSConn(c), nil
}
