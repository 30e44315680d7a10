package bot

import (
	"fmt"
	"math/rand"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/models"
)

// Opener is a legal turn-opening (card, side) pair with its chain estimate.
type Opener struct {
	Index int
	Card  models.Card
	Side  models.PileSide
	Chain int
}

// BeginnerBot picks a random non-ace opener.
type BeginnerBot struct {
	rng *rand.Rand
}

func (b *BeginnerBot) Decide(s *game.GameState, seat int) (game.Action, error) {
	return decide(s, seat, func(openers []Opener) Opener {
		return openers[b.rng.Intn(len(openers))]
	})
}

// ChainBot opens with the card that starts the longest chain. Ties go to the
// first opener in hand order, LEFT before RIGHT.
type ChainBot struct{}

func (ChainBot) Decide(s *game.GameState, seat int) (game.Action, error) {
	return decide(s, seat, func(openers []Opener) Opener {
		best := openers[0]
		for _, o := range openers[1:] {
			if o.Chain > best.Chain {
				best = o
			}
		}
		return best
	})
}

// decide is the procedure every tier shares; only the choice among non-ace
// openers differs.
func decide(s *game.GameState, seat int, choose func([]Opener) Opener) (game.Action, error) {
	p := s.PlayerBySeat(seat)
	if p == nil {
		return game.Action{}, fmt.Errorf("bot seat %d: %w", seat, game.ErrUnknownSeat)
	}

	// an open chain must be continued with the lowest legal card, or closed
	if len(s.CardsPlayedThisTurn) > 0 && s.LastPileSidePlayed != nil {
		side := *s.LastPileSidePlayed
		ctx := s.MoveContext(side)
		best := -1
		for i, card := range p.Hand {
			if !game.IsValidMove(card, ctx).Valid {
				continue
			}
			if best < 0 || card.Rank < p.Hand[best].Rank {
				best = i
			}
		}
		if best >= 0 {
			return game.Play(seat, best, side), nil
		}
		return game.EndTurn(seat), nil
	}

	normal, aces := Openers(s, p.Hand)
	if len(normal) > 0 {
		o := choose(normal)
		return game.Play(seat, o.Index, o.Side), nil
	}
	if len(aces) > 0 {
		return game.Play(seat, aces[0].Index, aces[0].Side), nil
	}
	if len(s.Deck) > 0 && p.AceCount() < s.Rules.MaxAces {
		return game.Draw(seat), nil
	}
	return game.EndTurn(seat), nil
}

// Openers lists every legal turn-opening move, split into non-ace and ace moves.
func Openers(s *game.GameState, hand []models.Card) (normal, aces []Opener) {
	for i, card := range hand {
		for _, side := range game.LegalSides(s, card) {
			o := Opener{Index: i, Card: card, Side: side, Chain: ChainLength(card, hand, side)}
			if card.IsAce() {
				aces = append(aces, o)
			} else {
				normal = append(normal, o)
			}
		}
	}
	return normal, aces
}
