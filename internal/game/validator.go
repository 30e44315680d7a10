// internal/game/validator.go
package game

import "github.com/jason-s-yu/clashkings/internal/models"

// Rejection reasons surfaced to the acting seat.
const (
	ReasonWrongDeck        = "Wrong deck."
	ReasonSamePile         = "Must continue playing on the same pile."
	ReasonConsecutiveRank  = "Stacking requires consecutive rank."
	ReasonOppositeColor    = "Must be opposite color/suit."
	ReasonRankTooLow       = "Must be same value or higher."
	ReasonOppositeTopSuit  = "Must be opposite suit of top card."
	ReasonDrawAfterPlay    = "Cannot draw after playing!"
	ReasonMaxAces          = "Max Aces! You must play a card."
	ReasonDeckEmpty        = "Deck is empty."
	ReasonPlayOrDraw       = "Play or Draw!"
	ReasonNoSuchCard       = "No card at that position."
	ReasonInvalidSide      = "Unknown pile."
	ReasonEmptyChatMessage = "Chat message is empty."
)

// MoveContext is everything the validator needs to know about the target pile
// and the turn in progress.
type MoveContext struct {
	Side           models.PileSide
	Top            *models.Card // nil when the pile is empty
	SideCleared    bool
	PlayedThisTurn []models.Card
	LockedSide     *models.PileSide
}

// MoveResult is the validator's verdict. Reason is empty when Valid.
type MoveResult struct {
	Valid  bool
	Reason string
}

func reject(reason string) MoveResult {
	return MoveResult{Valid: false, Reason: reason}
}

var accept = MoveResult{Valid: true}

// IsValidMove decides whether card may be placed on ctx.Side. It is pure: the
// same inputs always give the same answer and nothing is mutated.
func IsValidMove(card models.Card, ctx MoveContext) MoveResult {
	if !card.Suit.AllowedOn(ctx.Side) {
		return reject(ReasonWrongDeck)
	}

	// mid-turn: only the open chain may be extended
	if len(ctx.PlayedThisTurn) > 0 {
		if ctx.LockedSide == nil || *ctx.LockedSide != ctx.Side {
			return reject(ReasonSamePile)
		}
		last := ctx.PlayedThisTurn[len(ctx.PlayedThisTurn)-1]
		if !last.IsAce() {
			if card.Rank != last.Rank+1 {
				return reject(ReasonConsecutiveRank)
			}
			if card.Suit != last.Suit.Opposite() {
				return reject(ReasonOppositeColor)
			}
		}
		return accept
	}

	if card.IsAce() {
		return accept
	}
	if ctx.Top == nil || ctx.SideCleared {
		return accept
	}
	if card.Rank < ctx.Top.Rank {
		return reject(ReasonRankTooLow)
	}
	if card.Suit != ctx.Top.Suit.Opposite() {
		return reject(ReasonOppositeTopSuit)
	}
	return accept
}

// LegalSides lists the sides the card may be played on right now, in LEFT, RIGHT order.
func LegalSides(s *GameState, card models.Card) []models.PileSide {
	var out []models.PileSide
	for _, side := range []models.PileSide{models.Left, models.Right} {
		if IsValidMove(card, s.MoveContext(side)).Valid {
			out = append(out, side)
		}
	}
	return out
}
