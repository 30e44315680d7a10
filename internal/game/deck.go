// internal/game/deck.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/jason-s-yu/clashkings/internal/models"
)

// DeckSize is the number of cards in play.
const DeckSize = 52

// NewDeck builds the 52 cards in suit-major order with ids card-0..card-51.
func NewDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for _, suit := range models.Suits {
		for r := models.Two; r <= models.Ace; r++ {
			deck = append(deck, models.Card{
				ID:   fmt.Sprintf("card-%d", len(deck)),
				Suit: suit,
				Rank: r,
			})
		}
	}
	return deck
}

// Shuffle permutes the cards in place.
func Shuffle(cards []models.Card, r *rand.Rand) {
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// takeStarter removes the first non-ace card of a suit allowed on side.
func takeStarter(deck []models.Card, side models.PileSide) ([]models.Card, models.Card, error) {
	for i, c := range deck {
		if !c.IsAce() && c.Suit.AllowedOn(side) {
			out := append(deck[:i:i], deck[i+1:]...)
			return out, c, nil
		}
	}
	return deck, models.Card{}, fmt.Errorf("no starter card for %s pile", side)
}

// popCard takes one card from the tail of the deck.
func popCard(deck []models.Card) ([]models.Card, models.Card, bool) {
	if len(deck) == 0 {
		return deck, models.Card{}, false
	}
	c := deck[len(deck)-1]
	return deck[:len(deck)-1], c, true
}

// Deal creates a fresh PLAYING state for the given seats: shuffled deck, one
// non-ace starter per pile, rules.HandSize cards per seat dealt from the tail.
func Deal(players []models.Player, rules Rules, r *rand.Rand) (*GameState, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("cannot deal without players")
	}
	if 2+len(players)*rules.HandSize > DeckSize {
		return nil, fmt.Errorf("%d seats with %d cards each do not fit in the deck", len(players), rules.HandSize)
	}

	deck := NewDeck()
	Shuffle(deck, r)

	var left, right models.Card
	var err error
	if deck, left, err = takeStarter(deck, models.Left); err != nil {
		return nil, err
	}
	if deck, right, err = takeStarter(deck, models.Right); err != nil {
		return nil, err
	}

	seated := make([]models.Player, len(players))
	for i, p := range players {
		p.ID = i
		p.Hand = make([]models.Card, 0, rules.HandSize)
		for k := 0; k < rules.HandSize; k++ {
			var c models.Card
			deck, c, _ = popCard(deck)
			p.Hand = append(p.Hand, c)
		}
		p.SortHand()
		seated[i] = p
	}

	return &GameState{
		Deck:      deck,
		Players:   seated,
		LeftPile:  Pile{Side: models.Left, Cards: []models.Card{left}},
		RightPile: Pile{Side: models.Right, Cards: []models.Card{right}},
		Status:    StatusPlaying,
		Message:   TurnMessage(0),
		Rules:     rules,
	}, nil
}
