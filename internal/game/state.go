// internal/game/state.go
package game

import (
	"github.com/jason-s-yu/clashkings/internal/models"
)

// Status is the lifecycle phase of a game.
type Status string

const (
	StatusSetup    Status = "SETUP"
	StatusPlaying  Status = "PLAYING"
	StatusTutorial Status = "TUTORIAL"
	StatusGameOver Status = "GAME_OVER"
)

// Pile is one of the two discard stacks. The top card is the last element.
type Pile struct {
	Side    models.PileSide `json:"side"`
	Cards   []models.Card   `json:"cards"`
	Cleared bool            `json:"cleared"` // last card placed was an ace
}

// Top returns the top card, or nil for an empty pile.
func (p *Pile) Top() *models.Card {
	if len(p.Cards) == 0 {
		return nil
	}
	return &p.Cards[len(p.Cards)-1]
}

// GameState is the authoritative aggregate replicated to every peer as a snapshot.
type GameState struct {
	Version             uint64               `json:"version"`
	Deck                []models.Card        `json:"deck"`
	Players             []models.Player      `json:"players"`
	CurrentPlayerIndex  int                  `json:"currentPlayerIndex"`
	LeftPile            Pile                 `json:"leftPile"`
	RightPile           Pile                 `json:"rightPile"`
	CardsPlayedThisTurn []models.Card        `json:"cardsPlayedThisTurn"`
	LastPileSidePlayed  *models.PileSide     `json:"lastPileSidePlayed"`
	Status              Status               `json:"status"`
	Winner              *models.Player       `json:"winner"`
	Message             string               `json:"message"`
	History             []models.LogEntry    `json:"history"`
	Chat                []models.ChatMessage `json:"chat"`
	Rules               Rules                `json:"rules"`
}

// NewSetupState is the empty lobby state a host replicates before dealing.
func NewSetupState(players []models.Player) *GameState {
	return &GameState{
		Players:   players,
		LeftPile:  Pile{Side: models.Left},
		RightPile: Pile{Side: models.Right},
		Status:    StatusSetup,
		Message:   "SETUP|WAITING",
		Rules:     DefaultRules(),
	}
}

// Pile returns the pile for a side.
func (s *GameState) Pile(side models.PileSide) *Pile {
	if side == models.Left {
		return &s.LeftPile
	}
	return &s.RightPile
}

// CurrentPlayer returns the turn holder, or nil if there are no players.
func (s *GameState) CurrentPlayer() *models.Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// PlayerBySeat finds a player by seat id.
func (s *GameState) PlayerBySeat(seat int) *models.Player {
	for i := range s.Players {
		if s.Players[i].ID == seat {
			return &s.Players[i]
		}
	}
	return nil
}

// MoveContext collects the validator inputs for a side from the current turn.
func (s *GameState) MoveContext(side models.PileSide) MoveContext {
	p := s.Pile(side)
	ctx := MoveContext{
		Side:           side,
		SideCleared:    p.Cleared,
		PlayedThisTurn: s.CardsPlayedThisTurn,
		LockedSide:     s.LastPileSidePlayed,
	}
	if top := p.Top(); top != nil {
		t := *top
		ctx.Top = &t
	}
	return ctx
}

// CardCount totals every card the state accounts for. It is always 52 for a dealt game.
func (s *GameState) CardCount() int {
	n := len(s.Deck) + len(s.LeftPile.Cards) + len(s.RightPile.Cards)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// Clone returns a deep copy; snapshots handed outside the engine are always clones.
func (s *GameState) Clone() *GameState {
	out := *s
	out.Deck = append([]models.Card(nil), s.Deck...)
	out.Players = make([]models.Player, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.Clone()
	}
	out.LeftPile.Cards = append([]models.Card(nil), s.LeftPile.Cards...)
	out.RightPile.Cards = append([]models.Card(nil), s.RightPile.Cards...)
	out.CardsPlayedThisTurn = append([]models.Card(nil), s.CardsPlayedThisTurn...)
	if s.LastPileSidePlayed != nil {
		side := *s.LastPileSidePlayed
		out.LastPileSidePlayed = &side
	}
	if s.Winner != nil {
		w := s.Winner.Clone()
		out.Winner = &w
	}
	out.History = append([]models.LogEntry(nil), s.History...)
	out.Chat = append([]models.ChatMessage(nil), s.Chat...)
	return &out
}

// resetTurnChain clears the stacking context. Assumes lock is held.
func (s *GameState) resetTurnChain() {
	s.CardsPlayedThisTurn = nil
	s.LastPileSidePlayed = nil
}
