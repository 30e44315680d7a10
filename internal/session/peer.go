// internal/session/peer.go
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/clashkings/internal/protocol"
	"github.com/sirupsen/logrus"
)

const (
	outQueueSize  = 32
	writeTimeout  = 5 * time.Second
	pingTimeout   = 15 * time.Second
	transportPing = 30 * time.Second
)

// peer is one client connection attached to a Host.
type peer struct {
	id     string
	conn   Conn
	isHost bool // authenticated as the host participant
	seat   int  // -1 until READY is accepted; guarded by Host.mu

	out    chan protocol.Envelope
	cancel context.CancelFunc
	logger *logrus.Entry
}

func newPeer(conn Conn, isHost bool, logger *logrus.Entry) *peer {
	id := uuid.NewString()
	return &peer{
		id:     id,
		conn:   conn,
		isHost: isHost,
		seat:   -1,
		out:    make(chan protocol.Envelope, outQueueSize),
		cancel: func() {},
		logger: logger.WithField("peer", id),
	}
}

// write queues a frame without blocking. A peer too slow to drain its queue is cut off.
func (p *peer) write(env protocol.Envelope) {
	select {
	case p.out <- env:
	default:
		p.logger.Warnf("outbound queue full, dropping %s and closing peer", env.Type)
		p.cancel()
	}
}

// writePump drains the queue onto the connection until ctx is done or a write fails.
func (p *peer) writePump(ctx context.Context) {
	ticker := time.NewTicker(transportPing)
	defer ticker.Stop()
	defer p.cancel()

	pinger, canPing := p.conn.(Pinger)
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-p.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := p.conn.Write(writeCtx, env)
			cancel()
			if err != nil {
				p.logger.Warnf("failed to write %s: %v", env.Type, err)
				return
			}
		case <-ticker.C:
			if !canPing {
				continue
			}
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := pinger.Ping(pingCtx)
			cancel()
			if err != nil {
				p.logger.Warnf("ping failed: %v. Assuming disconnect.", err)
				return
			}
		}
	}
}
