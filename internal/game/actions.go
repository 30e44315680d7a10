// internal/game/actions.go
package game

import (
	"errors"
	"fmt"

	"github.com/jason-s-yu/clashkings/internal/models"
)

// ActionType names a mutation request. The values match the wire message types.
type ActionType string

const (
	ActionPlayCard ActionType = "PLAY_CARD"
	ActionDrawCard ActionType = "DRAW_CARD"
	ActionEndTurn  ActionType = "END_TURN"
	ActionSendChat ActionType = "SEND_CHAT"
)

// Action is the single input type of the engine, whether it came from local
// input, a decoded network message or a bot.
type Action struct {
	Type      ActionType          `json:"type"`
	Seat      int                 `json:"playerId"`
	HandIndex int                 `json:"index,omitempty"`
	Side      models.PileSide     `json:"side,omitempty"`
	Chat      *models.ChatMessage `json:"chat,omitempty"`
}

// Play builds a PLAY_CARD action.
func Play(seat, handIndex int, side models.PileSide) Action {
	return Action{Type: ActionPlayCard, Seat: seat, HandIndex: handIndex, Side: side}
}

// Draw builds a DRAW_CARD action.
func Draw(seat int) Action {
	return Action{Type: ActionDrawCard, Seat: seat}
}

// EndTurn builds an END_TURN action.
func EndTurn(seat int) Action {
	return Action{Type: ActionEndTurn, Seat: seat}
}

// Chat builds a SEND_CHAT action for the given message.
func Chat(msg models.ChatMessage) Action {
	return Action{Type: ActionSendChat, Seat: msg.PlayerID, Chat: &msg}
}

var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNotPlaying    = errors.New("game is not in progress")
	ErrUnknownSeat   = errors.New("unknown seat")
	ErrUnknownAction = errors.New("unknown action")
)

// RuleError is a rejected move. Reason is shown to the acting seat only.
type RuleError struct {
	Seat   int
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("seat %d: %s", e.Seat, e.Reason)
}

// IsRuleError reports whether err carries a rule violation and returns it.
func IsRuleError(err error) (*RuleError, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Authorize is the precondition every action passes before it may mutate state.
// Chat is accepted from any seated player in any phase; game actions only from
// the current turn holder while a game or tutorial is running.
func Authorize(s *GameState, a Action) error {
	switch a.Type {
	case ActionSendChat:
		if s.PlayerBySeat(a.Seat) == nil {
			return ErrUnknownSeat
		}
		return nil
	case ActionPlayCard, ActionDrawCard, ActionEndTurn:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}

	if s.Status != StatusPlaying && s.Status != StatusTutorial {
		return ErrNotPlaying
	}
	cur := s.CurrentPlayer()
	if cur == nil || cur.ID != a.Seat {
		return ErrNotYourTurn
	}
	return nil
}
