package bot

import (
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/sirupsen/logrus"
)

// Default pacing of bot turns.
const (
	DefaultTurnDelay = 1000 * time.Millisecond
	DefaultDrawDelay = 600 * time.Millisecond
)

// Driver plays every bot seat of an engine. It listens to committed changes
// and, when a bot holds the turn, acts after a fixed delay through Apply like
// any other seat.
type Driver struct {
	engine *game.Engine
	brain  Brain
	logger *logrus.Entry

	TurnDelay time.Duration
	DrawDelay time.Duration

	mu      sync.Mutex // guards brain, timer and stopped
	timer   *time.Timer
	stopped bool
}

// NewDriver attaches a driver to the engine. Call Observe with the engine's
// current snapshot afterwards if a bot may already hold the turn.
func NewDriver(e *game.Engine, brain Brain, logger *logrus.Entry) *Driver {
	d := &Driver{
		engine:    e,
		brain:     brain,
		logger:    logger,
		TurnDelay: DefaultTurnDelay,
		DrawDelay: DefaultDrawDelay,
	}
	e.Subscribe(d.Observe)
	return d
}

// Observe schedules a bot move if the change leaves a bot holding the turn.
// Any pending move is superseded.
func (d *Driver) Observe(ch game.Change) {
	s := ch.State
	if s.Status != game.StatusPlaying {
		return
	}
	cur := s.CurrentPlayer()
	if cur == nil || !cur.IsBot {
		return
	}

	delay := d.TurnDelay
	if strings.HasPrefix(s.Message, game.CodeDraw+"|") {
		delay = d.DrawDelay
	}
	version := s.Version

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, func() { d.act(version) })
}

// act runs one decision if nothing changed since it was scheduled.
func (d *Driver) act(version uint64) {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()
	if stopped {
		return
	}

	s := d.engine.Snapshot()
	if s.Version != version || s.Status != game.StatusPlaying {
		return
	}
	cur := s.CurrentPlayer()
	if cur == nil || !cur.IsBot {
		return
	}

	d.mu.Lock()
	brain := d.brain
	d.mu.Unlock()
	a, err := brain.Decide(s, cur.ID)
	if err != nil {
		d.logger.Warnf("bot %s could not decide: %v", cur.Name, err)
		return
	}
	if err := d.engine.Apply(a); err != nil {
		d.logger.WithFields(logrus.Fields{
			"seat":   cur.ID,
			"action": a.Type,
		}).Warnf("bot move rejected: %v", err)
	}
}

// SetBrain swaps the strategy used for later moves.
func (d *Driver) SetBrain(b Brain) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brain = b
}

// Stop cancels any pending move and ignores later changes.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
