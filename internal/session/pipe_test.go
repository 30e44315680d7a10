package session

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// pipeConn is one end of an in-memory Conn pair.
type pipeConn struct {
	in     chan protocol.Envelope
	out    chan protocol.Envelope
	closed chan struct{}
	once   sync.Once
	remote *pipeConn
}

func newPipe() (*pipeConn, *pipeConn) {
	ab := make(chan protocol.Envelope, 64)
	ba := make(chan protocol.Envelope, 64)
	a := &pipeConn{in: ba, out: ab, closed: make(chan struct{})}
	b := &pipeConn{in: ab, out: ba, closed: make(chan struct{})}
	a.remote, b.remote = b, a
	return a, b
}

func (p *pipeConn) Read(ctx context.Context) (protocol.Envelope, error) {
	select {
	case env := <-p.in:
		return env, nil
	case <-ctx.Done():
		return protocol.Envelope{}, ctx.Err()
	case <-p.closed:
		return protocol.Envelope{}, io.EOF
	case <-p.remote.closed:
		return protocol.Envelope{}, io.EOF
	}
}

func (p *pipeConn) Write(ctx context.Context, env protocol.Envelope) error {
	select {
	case <-p.closed:
		return io.ErrClosedPipe
	case <-p.remote.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case p.out <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

// pipeDialer connects clients straight into a Host.
type pipeDialer struct {
	host   *Host
	isHost bool
}

func (d pipeDialer) Dial(ctx context.Context, address string) (Conn, error) {
	if address != d.host.Address {
		return nil, ErrRoomNotFound
	}
	local, remote := newPipe()
	go d.host.Serve(context.Background(), remote, d.isHost)
	return local, nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// wire is the client end of a host connection driven by hand.
type wire struct {
	t    *testing.T
	conn *pipeConn
}

func dialHost(t *testing.T, h *Host, isHost bool) *wire {
	t.Helper()
	local, remote := newPipe()
	go h.Serve(context.Background(), remote, isHost)
	t.Cleanup(func() { local.Close() })
	return &wire{t: t, conn: local}
}

func (w *wire) send(env protocol.Envelope) {
	w.t.Helper()
	require.NoError(w.t, w.conn.Write(context.Background(), env))
}

func (w *wire) ready(name string) {
	w.t.Helper()
	env, err := protocol.New(protocol.TypeReady, protocol.ReadyPayload{Name: name})
	require.NoError(w.t, err)
	w.send(env)
}

func (w *wire) act(a game.Action) {
	w.t.Helper()
	env, err := protocol.FromAction(a)
	require.NoError(w.t, err)
	w.send(env)
}

func (w *wire) restart(opts protocol.RestartPayload) {
	w.t.Helper()
	env, err := protocol.New(protocol.TypeRestartGame, opts)
	require.NoError(w.t, err)
	w.send(env)
}

func (w *wire) next() protocol.Envelope {
	w.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	env, err := w.conn.Read(ctx)
	require.NoError(w.t, err, "expected a frame from the host")
	return env
}

// nextSync skips frames until a snapshot arrives.
func (w *wire) nextSync() (*game.GameState, *int) {
	w.t.Helper()
	for {
		env := w.next()
		if env.Type != protocol.TypeSyncState {
			continue
		}
		var s game.GameState
		require.NoError(w.t, env.Decode(&s))
		return &s, env.YourID
	}
}

// nextNotice skips frames until a notice arrives.
func (w *wire) nextNotice() string {
	w.t.Helper()
	for {
		env := w.next()
		if env.Type != protocol.TypeNotice {
			continue
		}
		var n protocol.NoticePayload
		require.NoError(w.t, env.Decode(&n))
		return n.Text
	}
}

// silent asserts nothing arrives for d.
func (w *wire) silent(d time.Duration) {
	w.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	env, err := w.conn.Read(ctx)
	require.Error(w.t, err, "unexpected %s frame", env.Type)
}
