// internal/session/client.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/models"
	"github.com/jason-s-yu/clashkings/internal/protocol"
	"github.com/sirupsen/logrus"
)

// ClientConfig tunes the joining side.
type ClientConfig struct {
	ReadyInterval time.Duration // READY is resent this often until the first snapshot
	ReadyWait     time.Duration // then the client stops and waits quietly
	PingInterval  time.Duration
	JoinTimeout   time.Duration // overall bound on establishing the connection
	Retry         RetryPolicy
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReadyInterval: time.Second,
		ReadyWait:     5 * time.Second,
		PingInterval:  3 * time.Second,
		JoinTimeout:   20 * time.Second,
		Retry:         DefaultRetryPolicy(),
	}
}

// Client is a replica. It never applies its own actions; it sends intents to
// the host and replaces its state with every SYNC_STATE it receives.
type Client struct {
	Name string

	dialer Dialer
	cfg    ClientConfig
	logger *logrus.Entry

	mu       sync.Mutex
	conn     Conn
	status   ConnStatus
	seat     int
	state    *game.GameState
	handlers []func(protocol.Envelope)
	cancel   context.CancelFunc
	done     chan struct{}

	// Callbacks run on the client's read goroutine.
	OnState  func(s *game.GameState, seat int)
	OnNotice func(text string)
	OnStatus func(status ConnStatus)
}

func NewClient(name string, d Dialer, cfg ClientConfig, logger *logrus.Entry) *Client {
	return &Client{
		Name:   name,
		dialer: d,
		cfg:    cfg,
		logger: logger,
		status: StatusDisconnected,
		seat:   -1,
	}
}

// Connect dials the room with the retry policy and starts the session loop.
// On failure the status becomes FAILED and the error wraps ErrConnectFailed.
func (c *Client) Connect(ctx context.Context, address string) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return fmt.Errorf("already connected")
	}
	c.mu.Unlock()

	c.setStatus(StatusConnecting)
	joinCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.cfg.JoinTimeout > 0 {
		joinCtx, cancel = context.WithTimeout(ctx, c.cfg.JoinTimeout)
	}
	conn, err := Establish(joinCtx, c.cfg.Retry, func(ctx context.Context) (Conn, error) {
		return c.dialer.Dial(ctx, address)
	})
	cancel()
	if err != nil {
		c.logger.Warnf("failed to join %s: %v", address, err)
		c.setStatus(StatusFailed)
		c.notify(MsgRoomNotFound)
		if errors.Is(err, ErrConnectFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.state = nil
	c.cancel = stop
	c.done = done
	c.mu.Unlock()

	c.setStatus(StatusConnected)
	go c.run(runCtx, conn, done)
	return nil
}

// Disconnect closes the connection and waits for the session loop to exit.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the current connection ends.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Send forwards an intent to the host.
func (c *Client) Send(ctx context.Context, a game.Action) error {
	env, err := protocol.FromAction(a)
	if err != nil {
		return err
	}
	return c.write(ctx, env)
}

// Say sends a chat line as this client's seat.
func (c *Client) Say(ctx context.Context, text string) error {
	_, seat := c.State()
	return c.Send(ctx, game.Chat(models.ChatMessage{PlayerID: seat, PlayerName: c.Name, Text: text}))
}

// Restart asks the host to deal. Only honored from the host participant.
func (c *Client) Restart(ctx context.Context, opts protocol.RestartPayload) error {
	env, err := protocol.New(protocol.TypeRestartGame, opts)
	if err != nil {
		return err
	}
	return c.write(ctx, env)
}

// OnMessage registers a handler for every inbound frame.
func (c *Client) OnMessage(fn func(protocol.Envelope)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

// State returns the last replicated snapshot and the local seat (-1 before the first sync).
func (c *Client) State() (*game.GameState, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return nil, c.seat
	}
	return c.state.Clone(), c.seat
}

func (c *Client) Status() ConnStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) write(ctx context.Context, env protocol.Envelope) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, env)
}

// run owns the connection: it resends READY until the first snapshot, pings
// the host and applies inbound frames.
func (c *Client) run(ctx context.Context, conn Conn, done chan struct{}) {
	defer close(done)
	defer func() {
		_ = conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.cancel = nil
		c.mu.Unlock()
	}()

	msgs := make(chan protocol.Envelope)
	errs := make(chan error, 1)
	go func() {
		for {
			env, err := conn.Read(ctx)
			if err != nil {
				if errors.Is(err, ErrBadFrame) {
					continue
				}
				errs <- err
				return
			}
			select {
			case msgs <- env:
			case <-ctx.Done():
				return
			}
		}
	}()

	ready := time.NewTicker(c.cfg.ReadyInterval)
	defer ready.Stop()
	wait := time.NewTimer(c.cfg.ReadyWait)
	defer wait.Stop()
	ping := time.NewTicker(c.cfg.PingInterval)
	defer ping.Stop()

	readyC := ready.C
	synced := false
	c.sendReady(ctx)

	for {
		select {
		case <-ctx.Done():
			c.setStatus(StatusDisconnected)
			return
		case err := <-errs:
			c.logger.Infof("connection to host closed: %v", err)
			c.setStatus(StatusDisconnected)
			c.notify(MsgConnectionLost)
			return
		case <-readyC:
			c.sendReady(ctx)
		case <-wait.C:
			if !synced {
				ready.Stop()
				readyC = nil
				c.notify(MsgWaitingForHost)
			}
		case <-ping.C:
			if err := c.write(ctx, protocol.Envelope{Type: protocol.TypePing}); err != nil {
				c.logger.Debugf("ping failed: %v", err)
			}
		case env := <-msgs:
			if c.handle(env) && !synced {
				synced = true
				ready.Stop()
				readyC = nil
			}
		}
	}
}

func (c *Client) sendReady(ctx context.Context) {
	env, err := protocol.New(protocol.TypeReady, protocol.ReadyPayload{Name: c.Name})
	if err != nil {
		return
	}
	if err := c.write(ctx, env); err != nil {
		c.logger.Debugf("READY not sent: %v", err)
	}
}

// handle applies one inbound frame and reports whether it was a snapshot.
func (c *Client) handle(env protocol.Envelope) bool {
	c.mu.Lock()
	handlers := append([]func(protocol.Envelope){}, c.handlers...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(env)
	}

	switch env.Type {
	case protocol.TypeSyncState:
		var s game.GameState
		if err := env.Decode(&s); err != nil {
			c.logger.Warnf("bad snapshot: %v", err)
			return false
		}
		c.mu.Lock()
		if c.state != nil && s.Version < c.state.Version {
			// a broadcast overtaken by a newer snapshot
			c.mu.Unlock()
			return true
		}
		if env.YourID != nil {
			c.seat = *env.YourID
		}
		c.state = &s
		seat := c.seat
		c.mu.Unlock()
		if c.OnState != nil {
			c.OnState(s.Clone(), seat)
		}
		return true
	case protocol.TypeNotice:
		var n protocol.NoticePayload
		if err := env.Decode(&n); err == nil {
			c.notify(n.Text)
		}
	}
	return false
}

func (c *Client) setStatus(s ConnStatus) {
	c.mu.Lock()
	changed := c.status != s
	c.status = s
	c.mu.Unlock()
	if changed && c.OnStatus != nil {
		c.OnStatus(s)
	}
}

func (c *Client) notify(text string) {
	if c.OnNotice != nil {
		c.OnNotice(text)
	}
}
