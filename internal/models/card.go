// internal/models/card.go
package models

import (
	"fmt"
	"strconv"
)

// Suit is one of the four French suits.
type Suit string

const (
	Hearts   Suit = "HEARTS"
	Diamonds Suit = "DIAMONDS"
	Clubs    Suit = "CLUBS"
	Spades   Suit = "SPADES"
)

// Suits lists every suit in deck construction order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Rank is the ordinal value of a card, 2 through 14 (ace high).
type Rank int

const (
	Two   Rank = 2
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Color is derived from the suit.
type Color string

const (
	Red   Color = "RED"
	Black Color = "BLACK"
)

// PileSide names one of the two piles on the table.
type PileSide string

const (
	Left  PileSide = "LEFT"
	Right PileSide = "RIGHT"
)

// Valid reports whether the side is LEFT or RIGHT.
func (s PileSide) Valid() bool {
	return s == Left || s == Right
}

// Card is an immutable playing card. Equality is by ID.
type Card struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
}

// Color returns RED for hearts/diamonds and BLACK otherwise.
func (s Suit) Color() Color {
	if s == Hearts || s == Diamonds {
		return Red
	}
	return Black
}

// Symbol returns the unicode pip for the suit.
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	}
	return "?"
}

// SuitFromSymbol is the inverse of Symbol.
func SuitFromSymbol(sym string) (Suit, bool) {
	for _, s := range Suits {
		if s.Symbol() == sym {
			return s, true
		}
	}
	return "", false
}

// Side returns the pile that accepts this suit.
func (s Suit) Side() PileSide {
	if s == Spades || s == Hearts {
		return Left
	}
	return Right
}

// AllowedOn reports whether the suit may ever be placed on the given pile.
func (s Suit) AllowedOn(side PileSide) bool {
	return s.Side() == side
}

// Opposite returns the partner suit on the same pile: spades<->hearts, clubs<->diamonds.
func (s Suit) Opposite() Suit {
	switch s {
	case Spades:
		return Hearts
	case Hearts:
		return Spades
	case Clubs:
		return Diamonds
	case Diamonds:
		return Clubs
	}
	return s
}

// Label renders the rank the way the table shows it: J, Q, K, A or the number.
func (r Rank) Label() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	return strconv.Itoa(int(r))
}

// ParseRankLabel is the inverse of Label.
func ParseRankLabel(label string) (Rank, error) {
	switch label {
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	}
	n, err := strconv.Atoi(label)
	if err != nil || n < int(Two) || n > 10 {
		return 0, fmt.Errorf("invalid rank label %q", label)
	}
	return Rank(n), nil
}

// IsAce is a shorthand used all over the rules.
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// Color of the card's suit.
func (c Card) Color() Color {
	return c.Suit.Color()
}

// String renders e.g. "5♥".
func (c Card) String() string {
	return c.Rank.Label() + c.Suit.Symbol()
}
