// internal/game/engine.go
package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/clashkings/internal/models"
)

// Change describes one committed mutation. State is a private clone.
type Change struct {
	Action   *Action      // nil for deals, resets and scripted tutorial moves
	Played   *models.Card // card removed from the actor's hand by a PLAY_CARD
	GameOver bool         // this mutation ended the game
	State    *GameState
}

// Listener observes committed changes. Listeners run in commit order and must
// not call Apply synchronously; schedule follow-up actions on another goroutine.
type Listener func(ch Change)

// Engine owns the authoritative GameState of one session. Every mutation goes
// through Apply (or the scripted tutorial path) and is serialized by mu.
type Engine struct {
	mu    sync.Mutex
	pubMu sync.Mutex // keeps listener delivery in commit order

	state *GameState
	rng   *rand.Rand
	now   func() time.Time

	listeners []Listener

	// NoticeFn receives rule violations for the acting seat. If nil, notices are dropped.
	NoticeFn func(seat int, reason string)
}

// NewEngine wraps an initial state. A nil rng gets a time-seeded source.
func NewEngine(state *GameState, r *rand.Rand) *Engine {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if state == nil {
		state = NewSetupState(nil)
	}
	return &Engine{state: state, rng: r, now: time.Now}
}

// Subscribe registers a listener for every committed change.
func (e *Engine) Subscribe(fn Listener) {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Reset replaces the whole state, e.g. after a new deal. The version keeps
// increasing so replicas never see it go backwards.
func (e *Engine) Reset(next *GameState) {
	e.mu.Lock()
	next.Version = e.state.Version
	e.state = next
	e.commit(Change{})
}

// Deal starts a fresh game over the given seats.
func (e *Engine) Deal(players []models.Player, rules Rules) error {
	e.mu.Lock()
	s, err := Deal(players, rules, e.rng)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	s.Version = e.state.Version
	s.Chat = e.state.Chat
	e.state = s
	e.commit(Change{})
	return nil
}

// UpdateRoster swaps the player list while still in setup.
func (e *Engine) UpdateRoster(players []models.Player) error {
	e.mu.Lock()
	if e.state.Status != StatusSetup && e.state.Status != StatusGameOver {
		e.mu.Unlock()
		return ErrNotPlaying
	}
	e.state.Players = players
	e.state.CurrentPlayerIndex = 0
	e.commit(Change{})
	return nil
}

// SetConnected flips the connected flag of a seat without touching the game.
func (e *Engine) SetConnected(seat int, connected bool) {
	e.mu.Lock()
	p := e.state.PlayerBySeat(seat)
	if p == nil || p.Connected == connected {
		e.mu.Unlock()
		return
	}
	p.Connected = connected
	e.commit(Change{})
}

// Apply authorizes and applies one action. Turn-order failures are returned
// as-is; rule violations come back as *RuleError after being routed to NoticeFn.
func (e *Engine) Apply(a Action) error {
	e.mu.Lock()
	if err := Authorize(e.state, a); err != nil {
		e.mu.Unlock()
		return err
	}

	ch := Change{Action: &a}
	var err error
	switch a.Type {
	case ActionPlayCard:
		ch.Played, ch.GameOver, err = e.playCard(a)
	case ActionDrawCard:
		err = e.drawCard(a)
	case ActionEndTurn:
		err = e.endTurn(a)
	case ActionSendChat:
		err = e.sendChat(a)
	}
	if err != nil {
		e.mu.Unlock()
		if re, ok := IsRuleError(err); ok && e.NoticeFn != nil {
			e.NoticeFn(re.Seat, re.Reason)
		}
		return err
	}

	e.commit(ch)
	return nil
}

// mutate runs a scripted change under the lock.
func (e *Engine) mutate(fn func(s *GameState)) {
	e.mu.Lock()
	fn(e.state)
	e.commit(Change{})
}

// commit bumps the version, then hands the lock over to the publisher so
// listeners see changes in the order they were made. Assumes mu is held; releases it.
func (e *Engine) commit(ch Change) {
	e.state.Version++
	ch.State = e.state.Clone()

	e.pubMu.Lock()
	e.mu.Unlock()
	defer e.pubMu.Unlock()
	for _, fn := range e.listeners {
		fn(ch)
	}
}

// playCard applies PLAY_CARD. Assumes lock is held.
func (e *Engine) playCard(a Action) (*models.Card, bool, error) {
	s := e.state
	player := s.CurrentPlayer()
	if a.HandIndex < 0 || a.HandIndex >= len(player.Hand) {
		return nil, false, &RuleError{Seat: a.Seat, Reason: ReasonNoSuchCard}
	}
	if !a.Side.Valid() {
		return nil, false, &RuleError{Seat: a.Seat, Reason: ReasonInvalidSide}
	}
	card := player.Hand[a.HandIndex]

	// tutorial moves are scripted and skip legality
	if s.Status != StatusTutorial {
		if res := IsValidMove(card, s.MoveContext(a.Side)); !res.Valid {
			return nil, false, &RuleError{Seat: a.Seat, Reason: res.Reason}
		}
	}

	player.Hand = append(player.Hand[:a.HandIndex:a.HandIndex], player.Hand[a.HandIndex+1:]...)
	pile := s.Pile(a.Side)

	if card.IsAce() {
		s.Deck = append(s.Deck, pile.Cards...)
		s.Deck = append(s.Deck, card)
		Shuffle(s.Deck, e.rng)
		pile.Cards = nil
		pile.Cleared = true
		s.resetTurnChain()
	} else {
		pile.Cards = append(pile.Cards, card)
		pile.Cleared = false
		s.CardsPlayedThisTurn = append(s.CardsPlayedThisTurn, card)
		side := a.Side
		s.LastPileSidePlayed = &side
	}

	s.Message = PlayMessage(player.ID, card)

	gameOver := len(player.Hand) == 0 && s.Status != StatusTutorial
	if gameOver {
		s.Status = StatusGameOver
		w := player.Clone()
		s.Winner = &w
		e.logEvent(player, models.LogGameOver, "WON THE GAME")
		return &card, true, nil
	}

	e.logEvent(player, models.LogPlay, "Played "+card.String())
	if card.IsAce() {
		s.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % len(s.Players)
	}
	return &card, false, nil
}

// drawCard applies DRAW_CARD. Assumes lock is held.
func (e *Engine) drawCard(a Action) error {
	s := e.state
	player := s.CurrentPlayer()
	if len(s.CardsPlayedThisTurn) > 0 {
		return &RuleError{Seat: a.Seat, Reason: ReasonDrawAfterPlay}
	}
	if player.AceCount() >= s.Rules.MaxAces {
		return &RuleError{Seat: a.Seat, Reason: ReasonMaxAces}
	}

	var card models.Card
	var ok bool
	if s.Deck, card, ok = popCard(s.Deck); !ok {
		return &RuleError{Seat: a.Seat, Reason: ReasonDeckEmpty}
	}
	player.Hand = append(player.Hand, card)
	player.SortHand()

	s.Message = DrawMessage(player.ID)
	e.logEvent(player, models.LogDraw, "Drew a card")
	return nil
}

// endTurn applies END_TURN. Assumes lock is held.
func (e *Engine) endTurn(a Action) error {
	s := e.state
	if s.Status == StatusTutorial {
		s.resetTurnChain()
		return nil
	}
	if len(s.CardsPlayedThisTurn) == 0 && len(s.Deck) > 0 {
		return &RuleError{Seat: a.Seat, Reason: ReasonPlayOrDraw}
	}

	player := s.CurrentPlayer()
	next := (s.CurrentPlayerIndex + 1) % len(s.Players)
	s.CurrentPlayerIndex = next
	s.resetTurnChain()
	s.Message = TurnMessage(s.Players[next].ID)
	e.logEvent(player, models.LogPass, "Ended turn")
	return nil
}

// sendChat appends a chat line. Assumes lock is held.
func (e *Engine) sendChat(a Action) error {
	if a.Chat == nil || strings.TrimSpace(a.Chat.Text) == "" {
		return &RuleError{Seat: a.Seat, Reason: ReasonEmptyChatMessage}
	}
	msg := *a.Chat
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = e.now().UnixMilli()
	}
	if p := e.state.PlayerBySeat(a.Seat); p != nil && msg.PlayerName == "" {
		msg.PlayerName = p.Name
	}
	msg.PlayerID = a.Seat
	e.state.Chat = append(e.state.Chat, msg)
	return nil
}

// logEvent appends to the audit history. Assumes lock is held.
func (e *Engine) logEvent(p *models.Player, typ models.LogType, desc string) {
	e.state.History = append(e.state.History, models.LogEntry{
		ID:          uuid.NewString(),
		Timestamp:   e.now().UnixMilli(),
		PlayerID:    p.ID,
		PlayerName:  p.Name,
		Type:        typ,
		Description: desc,
	})
}
