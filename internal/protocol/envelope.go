// internal/protocol/envelope.go
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/models"
)

// MessageType is the "type" field of every frame.
type MessageType string

const (
	TypeReady       MessageType = "READY"        // client -> host, join with a display name
	TypeSyncState   MessageType = "SYNC_STATE"   // host -> client, full snapshot (+ yourId)
	TypePlayCard    MessageType = "PLAY_CARD"    // client -> host
	TypeDrawCard    MessageType = "DRAW_CARD"    // client -> host
	TypeEndTurn     MessageType = "END_TURN"     // client -> host
	TypeSendChat    MessageType = "SEND_CHAT"    // relayed through the host
	TypePing        MessageType = "PING"         // client -> host liveness, never answered
	TypeRestartGame MessageType = "RESTART_GAME" // host seat -> host, deal a new game
	TypeNotice      MessageType = "NOTICE"       // host -> one client, transient text
)

// Envelope is a single frame on the wire.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	YourID  *int            `json:"yourId,omitempty"`
}

// ReadyPayload announces a joiner.
type ReadyPayload struct {
	Name string `json:"name"`
}

// SeatPayload carries the sender's claimed seat for DRAW_CARD and END_TURN.
type SeatPayload struct {
	PlayerID int `json:"playerId"`
}

// PlayCardPayload is the body of PLAY_CARD.
type PlayCardPayload struct {
	PlayerID int             `json:"playerId"`
	Index    int             `json:"index"`
	Side     models.PileSide `json:"side"`
}

// RestartPayload configures a new deal. Bots fills empty seats up to the given count.
type RestartPayload struct {
	Bots       int                    `json:"bots,omitempty"`
	Difficulty string                 `json:"difficulty,omitempty"`
	Rules      map[string]interface{} `json:"rules,omitempty"`
}

// NoticePayload is a transient message for a single client.
type NoticePayload struct {
	Text string `json:"text"`
}

// New marshals payload into an envelope of type t. A nil payload is omitted.
func New(t MessageType, payload interface{}) (Envelope, error) {
	env := Envelope{Type: t}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return env, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	env.Payload = data
	return env, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s: bad payload: %w", e.Type, err)
	}
	return nil
}

// Sync builds a SYNC_STATE frame. yourID is set only for the joiner's first delivery.
func Sync(state *game.GameState, yourID *int) (Envelope, error) {
	env, err := New(TypeSyncState, state)
	if err != nil {
		return env, err
	}
	env.YourID = yourID
	return env, nil
}

// Notice builds a NOTICE frame.
func Notice(text string) Envelope {
	env, _ := New(TypeNotice, NoticePayload{Text: text})
	return env
}

// IsAction reports whether the frame is a game action.
func (e Envelope) IsAction() bool {
	switch e.Type {
	case TypePlayCard, TypeDrawCard, TypeEndTurn, TypeSendChat:
		return true
	}
	return false
}

// ToAction decodes a game action frame into an engine Action.
func ToAction(e Envelope) (game.Action, error) {
	switch e.Type {
	case TypePlayCard:
		var p PlayCardPayload
		if err := e.Decode(&p); err != nil {
			return game.Action{}, err
		}
		return game.Play(p.PlayerID, p.Index, p.Side), nil
	case TypeDrawCard, TypeEndTurn:
		var p SeatPayload
		if err := e.Decode(&p); err != nil {
			return game.Action{}, err
		}
		if e.Type == TypeDrawCard {
			return game.Draw(p.PlayerID), nil
		}
		return game.EndTurn(p.PlayerID), nil
	case TypeSendChat:
		var msg models.ChatMessage
		if err := e.Decode(&msg); err != nil {
			return game.Action{}, err
		}
		return game.Chat(msg), nil
	}
	return game.Action{}, fmt.Errorf("%w: %s is not a game action", game.ErrUnknownAction, e.Type)
}

// FromAction encodes an engine Action as the frame a client sends to the host.
func FromAction(a game.Action) (Envelope, error) {
	switch a.Type {
	case game.ActionPlayCard:
		return New(TypePlayCard, PlayCardPayload{PlayerID: a.Seat, Index: a.HandIndex, Side: a.Side})
	case game.ActionDrawCard:
		return New(TypeDrawCard, SeatPayload{PlayerID: a.Seat})
	case game.ActionEndTurn:
		return New(TypeEndTurn, SeatPayload{PlayerID: a.Seat})
	case game.ActionSendChat:
		if a.Chat == nil {
			return Envelope{}, fmt.Errorf("SEND_CHAT without a message")
		}
		return New(TypeSendChat, a.Chat)
	}
	return Envelope{}, fmt.Errorf("%w: %q", game.ErrUnknownAction, a.Type)
}
