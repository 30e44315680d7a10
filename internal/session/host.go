// internal/session/host.go
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jason-s-yu/clashkings/internal/bot"
	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/models"
	"github.com/jason-s-yu/clashkings/internal/protocol"
	"github.com/sirupsen/logrus"
)

// ErrNeedPlayers is returned by Restart when fewer than two seats would be dealt.
var ErrNeedPlayers = errors.New("need at least 2 players")

// HostConfig tunes a hosted room.
type HostConfig struct {
	MaxPlayers    int
	Difficulty    bot.Difficulty
	Personalities bot.Personalities
	TurnDelay     time.Duration
	DrawDelay     time.Duration
	Seed          int64 // 0 seeds from the clock
}

// DefaultHostConfig is a four seat room with intermediate bots.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		MaxPlayers:    4,
		Difficulty:    bot.Intermediate,
		Personalities: bot.DefaultPersonalities(),
		TurnDelay:     bot.DefaultTurnDelay,
		DrawDelay:     bot.DefaultDrawDelay,
	}
}

// RoomInfo is the public summary of a room.
type RoomInfo struct {
	Code    string      `json:"code"`
	Address string      `json:"address"`
	Players int         `json:"players"`
	Status  game.Status `json:"status"`
}

// Host is the authoritative side of a room. It owns the engine, accepts READY
// from joiners, checks every action frame against the seat bound to the
// connection that sent it, and replicates each committed state to all seats.
type Host struct {
	Code    string
	Address string

	engine  *game.Engine
	driver  *bot.Driver
	chatter *bot.Chatter
	cfg     HostConfig
	logger  *logrus.Entry
	rng     *rand.Rand // guarded by rosterMu

	rosterMu sync.Mutex // serializes join, leave and restart

	mu     sync.Mutex // guards peers, seats and closed
	peers  map[string]*peer
	seats  map[int]*peer
	closed bool

	// OnEmpty is called once the last connection has left.
	OnEmpty func(h *Host)
	// OnGameOver is called on its own goroutine with the final state of each game.
	OnGameOver func(h *Host, final *game.GameState)
}

// NewHost opens a room whose seat 0 belongs to hostName.
func NewHost(code, hostName string, cfg HostConfig, logger *logrus.Entry) (*Host, error) {
	if cfg.MaxPlayers < 2 {
		cfg.MaxPlayers = 4
	}
	if cfg.Personalities == nil {
		cfg.Personalities = bot.DefaultPersonalities()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if hostName == "" {
		hostName = "Host"
	}

	h := &Host{
		Code:    code,
		Address: protocol.Address(code),
		cfg:     cfg,
		logger:  logger.WithField("room", code),
		rng:     rand.New(rand.NewSource(seed + 1)),
		peers:   make(map[string]*peer),
		seats:   make(map[int]*peer),
	}

	brain, err := bot.NewBrain(cfg.Difficulty, h.rng)
	if err != nil {
		return nil, err
	}

	players := []models.Player{{ID: 0, Name: hostName}}
	h.engine = game.NewEngine(game.NewSetupState(players), rand.New(rand.NewSource(seed)))
	h.engine.NoticeFn = h.noticeSeat
	h.engine.Subscribe(h.broadcast)

	h.driver = bot.NewDriver(h.engine, brain, h.logger.WithField("component", "bots"))
	h.driver.TurnDelay = cfg.TurnDelay
	h.driver.DrawDelay = cfg.DrawDelay
	h.chatter = bot.NewChatter(h.engine, cfg.Personalities, rand.New(rand.NewSource(seed+2)), h.logger.WithField("component", "chatter"))
	return h, nil
}

// Snapshot returns a copy of the authoritative state.
func (h *Host) Snapshot() *game.GameState {
	return h.engine.Snapshot()
}

// Info summarizes the room for lookups.
func (h *Host) Info() RoomInfo {
	s := h.engine.Snapshot()
	return RoomInfo{Code: h.Code, Address: h.Address, Players: len(s.Players), Status: s.Status}
}

// PeerCount is the number of open connections.
func (h *Host) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Serve runs one connection until it closes. isHost marks a connection
// authenticated as the host participant; it takes seat 0 on READY.
func (h *Host) Serve(ctx context.Context, conn Conn, isHost bool) error {
	ctx, cancel := context.WithCancel(ctx)
	p := newPeer(conn, isHost, h.logger)
	p.cancel = cancel

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		return ErrRoomClosed
	}
	h.peers[p.id] = p
	h.mu.Unlock()

	h.logger.Infof("peer %s connected (host=%v)", p.id, isHost)
	go p.writePump(ctx)
	defer func() {
		cancel()
		_ = conn.Close()
		h.leave(p)
	}()

	for {
		env, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, ErrBadFrame) {
				p.logger.Debugf("ignoring frame: %v", err)
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		h.handle(p, env)
	}
}

// handle dispatches one inbound frame.
func (h *Host) handle(p *peer, env protocol.Envelope) {
	switch {
	case env.Type == protocol.TypePing:
		p.logger.Trace("ping")
	case env.Type == protocol.TypeReady:
		var rp protocol.ReadyPayload
		if len(env.Payload) > 0 {
			if err := env.Decode(&rp); err != nil {
				p.logger.Debugf("bad READY: %v", err)
			}
		}
		h.join(p, rp.Name)
	case env.Type == protocol.TypeRestartGame:
		if !p.isHost {
			p.write(protocol.Notice(MsgHostOnly))
			return
		}
		var opts protocol.RestartPayload
		if len(env.Payload) > 0 {
			if err := env.Decode(&opts); err != nil {
				p.write(protocol.Notice(err.Error()))
				return
			}
		}
		if err := h.Restart(opts); err != nil {
			h.logger.Warnf("restart failed: %v", err)
			p.write(protocol.Notice(noticeFor(err)))
		}
	case env.IsAction():
		h.handleAction(p, env)
	default:
		p.logger.Debugf("ignoring %s frame", env.Type)
	}
}

// handleAction applies an action frame if the claimed seat is the one bound to
// the sending connection. Anything else is dropped without a reply.
func (h *Host) handleAction(p *peer, env protocol.Envelope) {
	a, err := protocol.ToAction(env)
	if err != nil {
		p.logger.Debugf("dropping %s: %v", env.Type, err)
		return
	}

	h.mu.Lock()
	seat := p.seat
	h.mu.Unlock()
	if seat < 0 || a.Seat != seat {
		p.logger.WithFields(logrus.Fields{
			"bound":   seat,
			"claimed": a.Seat,
		}).Debugf("dropping %s: seat mismatch", a.Type)
		return
	}

	if err := h.engine.Apply(a); err != nil {
		if _, ok := game.IsRuleError(err); ok {
			p.logger.Debugf("rejected %s: %v", a.Type, err)
			return
		}
		p.logger.Debugf("dropping %s: %v", a.Type, err)
	}
}

// join seats a peer on READY. A repeated READY from a seated peer gets its
// snapshot again and changes nothing.
func (h *Host) join(p *peer, name string) {
	h.rosterMu.Lock()
	defer h.rosterMu.Unlock()

	h.mu.Lock()
	seat := p.seat
	h.mu.Unlock()
	if seat >= 0 {
		h.bindSeat(p, seat)
		return
	}

	snap := h.engine.Snapshot()
	if p.isHost {
		seat = 0
		if snap.Status == game.StatusSetup {
			players := snap.Players
			players[0].Connected = true
			if name != "" {
				players[0].Name = name
			}
			if err := h.engine.UpdateRoster(players); err != nil {
				h.logger.Warnf("failed to seat host: %v", err)
			}
		} else {
			h.engine.SetConnected(0, true)
		}
	} else {
		if snap.Status != game.StatusSetup {
			p.write(protocol.Notice(MsgGameInProgress))
			return
		}
		if len(snap.Players) >= h.cfg.MaxPlayers {
			p.write(protocol.Notice(MsgRoomFull))
			return
		}
		seat = len(snap.Players)
		if name == "" {
			name = fmt.Sprintf("Player %d", seat+1)
		}
		players := append(snap.Players, models.Player{ID: seat, Name: name, Connected: true})
		if err := h.engine.UpdateRoster(players); err != nil {
			h.logger.Warnf("failed to seat %s: %v", name, err)
			return
		}
	}

	h.logger.WithFields(logrus.Fields{"seat": seat, "name": name}).Info("player seated")
	h.bindSeat(p, seat)
}

// bindSeat attaches p to seat and sends it the snapshot carrying its seat id.
// The sync is queued while mu is held so no broadcast can overtake it.
func (h *Host) bindSeat(p *peer, seat int) {
	snap := h.engine.Snapshot()
	env, err := protocol.Sync(snap, &seat)
	if err != nil {
		h.logger.Errorf("failed to encode snapshot: %v", err)
		return
	}

	h.mu.Lock()
	if old := h.seats[seat]; old != nil && old != p {
		old.seat = -1
		old.cancel()
	}
	h.seats[seat] = p
	p.seat = seat
	p.write(env)
	h.mu.Unlock()

	// A commit between the snapshot and the bind would have skipped this peer.
	if latest := h.engine.Snapshot(); latest.Version != snap.Version {
		if env, err := protocol.Sync(latest, nil); err == nil {
			h.mu.Lock()
			p.write(env)
			h.mu.Unlock()
		}
	}
}

// leave unbinds a closed connection. Before the first deal its seat is removed
// and later seats move down; during a game the seat is only marked disconnected.
func (h *Host) leave(p *peer) {
	h.mu.Lock()
	delete(h.peers, p.id)
	seat := p.seat
	bound := seat >= 0 && h.seats[seat] == p
	if bound {
		delete(h.seats, seat)
	}
	empty := len(h.peers) == 0
	closed := h.closed
	h.mu.Unlock()

	h.logger.Infof("peer %s left (seat %d)", p.id, seat)

	if bound && !closed {
		h.rosterMu.Lock()
		snap := h.engine.Snapshot()
		if snap.Status == game.StatusSetup && seat != 0 {
			h.removeSeat(snap, seat)
		} else {
			h.engine.SetConnected(seat, false)
			if snap.Status == game.StatusPlaying {
				h.noticeAll(MsgPlayerDisconnected)
			}
		}
		h.rosterMu.Unlock()
	}

	if empty && !closed && h.OnEmpty != nil {
		h.OnEmpty(h)
	}
}

// removeSeat drops a seat from the setup roster. Assumes rosterMu is held.
func (h *Host) removeSeat(snap *game.GameState, seat int) {
	players := make([]models.Player, 0, len(snap.Players))
	moved := make(map[int]int)
	for _, pl := range snap.Players {
		if pl.ID == seat {
			continue
		}
		if pl.ID != len(players) {
			moved[pl.ID] = len(players)
		}
		pl.ID = len(players)
		players = append(players, pl)
	}

	h.remap(moved)
	if err := h.engine.UpdateRoster(players); err != nil {
		h.logger.Warnf("failed to remove seat %d: %v", seat, err)
		return
	}
	h.resendSeats(moved)
}

// remap moves bound peers to new seat ids.
func (h *Host) remap(moved map[int]int) {
	if len(moved) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	seats := make(map[int]*peer, len(h.seats))
	for s, q := range h.seats {
		if to, ok := moved[s]; ok {
			s = to
		}
		q.seat = s
		seats[s] = q
	}
	h.seats = seats
}

// resendSeats tells every renumbered peer its new seat.
func (h *Host) resendSeats(moved map[int]int) {
	if len(moved) == 0 {
		return
	}
	snap := h.engine.Snapshot()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, to := range moved {
		q := h.seats[to]
		if q == nil {
			continue
		}
		seat := to
		env, err := protocol.Sync(snap, &seat)
		if err != nil {
			continue
		}
		q.write(env)
	}
}

// Restart deals a new game to the seated humans, filling up to opts.Bots
// extra seats with bots. Humans who are no longer connected lose their seat.
func (h *Host) Restart(opts protocol.RestartPayload) error {
	h.rosterMu.Lock()
	defer h.rosterMu.Unlock()

	snap := h.engine.Snapshot()
	rules := snap.Rules
	if err := rules.Update(opts.Rules); err != nil {
		return err
	}
	if opts.Difficulty != "" {
		level, err := bot.ParseDifficulty(opts.Difficulty)
		if err != nil {
			return err
		}
		brain, err := bot.NewBrain(level, h.rng)
		if err != nil {
			return err
		}
		h.driver.SetBrain(brain)
	}

	h.mu.Lock()
	var players []models.Player
	moved := make(map[int]int)
	for _, pl := range snap.Players {
		if pl.IsBot {
			continue
		}
		if _, bound := h.seats[pl.ID]; !bound && pl.ID != 0 {
			continue
		}
		if pl.ID != len(players) {
			moved[pl.ID] = len(players)
		}
		pl.ID = len(players)
		pl.Hand = nil
		players = append(players, pl)
	}
	h.mu.Unlock()

	total := len(players) + opts.Bots
	if total > h.cfg.MaxPlayers {
		total = h.cfg.MaxPlayers
	}
	if total < 2 {
		return ErrNeedPlayers
	}
	for _, name := range bot.PickNames(total-len(players), h.rng) {
		players = append(players, models.Player{ID: len(players), Name: name, IsBot: true, Connected: true})
	}

	h.remap(moved)
	if err := h.engine.Deal(players, rules); err != nil {
		return err
	}
	h.resendSeats(moved)
	h.logger.WithFields(logrus.Fields{
		"players": len(players),
		"rules":   fmt.Sprintf("%d/%d", rules.HandSize, rules.MaxAces),
	}).Info("game dealt")
	return nil
}

// Close disconnects every peer and stops the bots.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for _, p := range h.peers {
		p.cancel()
	}
	h.mu.Unlock()

	h.driver.Stop()
	h.chatter.Stop()
	h.logger.Info("room closed")
}

// broadcast replicates a committed change to every seated peer.
func (h *Host) broadcast(ch game.Change) {
	env, err := protocol.Sync(ch.State, nil)
	if err != nil {
		h.logger.Errorf("failed to encode snapshot: %v", err)
		return
	}
	h.mu.Lock()
	for _, p := range h.seats {
		p.write(env)
	}
	h.mu.Unlock()

	if ch.GameOver && h.OnGameOver != nil {
		go h.OnGameOver(h, ch.State)
	}
}

// noticeSeat routes a rule violation to the seat that caused it.
func (h *Host) noticeSeat(seat int, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p := h.seats[seat]; p != nil {
		p.write(protocol.Notice(reason))
	}
}

func (h *Host) noticeAll(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.seats {
		p.write(protocol.Notice(text))
	}
}

func noticeFor(err error) string {
	if errors.Is(err, ErrNeedPlayers) {
		return MsgNeedPlayers
	}
	return err.Error()
}
