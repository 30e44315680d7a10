// internal/game/message.go
package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jason-s-yu/clashkings/internal/models"
)

// Event codes carried in GameState.Message as pipe-delimited strings.
const (
	CodeSetup    = "SETUP"
	CodeTurn     = "TURN"
	CodePlay     = "PLAY"
	CodeDraw     = "DRAW"
	CodePass     = "PASS"
	CodeTutorial = "TUTORIAL"
)

// TurnMessage encodes "TURN|seat".
func TurnMessage(seat int) string {
	return fmt.Sprintf("%s|%d", CodeTurn, seat)
}

// PlayMessage encodes "PLAY|seat|rank|suitSymbol".
func PlayMessage(seat int, c models.Card) string {
	return fmt.Sprintf("%s|%d|%s|%s", CodePlay, seat, c.Rank.Label(), c.Suit.Symbol())
}

// DrawMessage encodes "DRAW|seat".
func DrawMessage(seat int) string {
	return fmt.Sprintf("%s|%d", CodeDraw, seat)
}

// EventMessage is a decoded message code.
type EventMessage struct {
	Code string
	Seat int    // -1 when the code carries no seat
	Card string // "5♥" for PLAY
}

// ParseMessage splits a message code. Unknown codes are returned with Seat -1.
func ParseMessage(msg string) EventMessage {
	parts := strings.Split(msg, "|")
	ev := EventMessage{Code: parts[0], Seat: -1}
	switch ev.Code {
	case CodeTurn, CodePlay, CodeDraw, CodePass:
		if len(parts) > 1 {
			if n, err := strconv.Atoi(parts[1]); err == nil {
				ev.Seat = n
			}
		}
	}
	if ev.Code == CodePlay && len(parts) > 3 {
		ev.Card = parts[2] + parts[3]
	}
	return ev
}

// Describe renders a message code for a viewer. Players are looked up by seat
// to name the actor; the viewer's own actions are phrased in second person.
func Describe(msg string, viewer int, players []models.Player) string {
	if msg == "" {
		return ""
	}
	ev := ParseMessage(msg)
	name := func(fallback string) string {
		for _, p := range players {
			if p.ID == ev.Seat {
				return p.Name
			}
		}
		return fallback
	}

	switch ev.Code {
	case CodeSetup:
		return "Clash of Kings"
	case CodeTutorial:
		return "Tutorial"
	case CodeTurn:
		if ev.Seat == viewer {
			return "Your Turn"
		}
		return name(fmt.Sprintf("Player %d", ev.Seat+1)) + "'s Turn"
	case CodePlay:
		if ev.Seat == viewer {
			return "You played " + ev.Card
		}
		return name("Opponent") + " played " + ev.Card
	case CodeDraw:
		if ev.Seat == viewer {
			return "Card Drawn"
		}
		return name("Opponent") + " drew a card"
	case CodePass:
		if ev.Seat == viewer {
			return "You Passed"
		}
		return name("Opponent") + " Passed"
	}
	return msg
}
