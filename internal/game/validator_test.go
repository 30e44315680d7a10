package game

import (
	"testing"

	"github.com/jason-s-yu/clashkings/internal/models"
	"github.com/stretchr/testify/assert"
)

func c(suit models.Suit, rank models.Rank) models.Card {
	return models.Card{ID: string(suit) + "-" + rank.Label(), Suit: suit, Rank: rank}
}

func sidePtr(s models.PileSide) *models.PileSide { return &s }

func TestIsValidMove_WrongDeck(t *testing.T) {
	res := IsValidMove(c(models.Clubs, 9), MoveContext{Side: models.Left})
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonWrongDeck, res.Reason)

	res = IsValidMove(c(models.Hearts, models.Ace), MoveContext{Side: models.Right})
	assert.Equal(t, ReasonWrongDeck, res.Reason, "aces are still bound to their side")
}

func TestIsValidMove_OpeningOnNormalPile(t *testing.T) {
	top := c(models.Spades, 4)
	ctx := MoveContext{Side: models.Left, Top: &top}

	assert.True(t, IsValidMove(c(models.Hearts, 4), ctx).Valid, "same rank, opposite suit")
	assert.True(t, IsValidMove(c(models.Hearts, 9), ctx).Valid)

	res := IsValidMove(c(models.Hearts, 3), ctx)
	assert.Equal(t, ReasonRankTooLow, res.Reason)

	res = IsValidMove(c(models.Spades, 9), ctx)
	assert.Equal(t, ReasonOppositeTopSuit, res.Reason)

	assert.True(t, IsValidMove(c(models.Spades, models.Ace), ctx).Valid, "ace always opens")
}

func TestIsValidMove_EmptyOrClearedPile(t *testing.T) {
	assert.True(t, IsValidMove(c(models.Diamonds, 2), MoveContext{Side: models.Right}).Valid)

	// scenario C: cleared pile accepts any permitted suit regardless of rank
	top := c(models.Hearts, models.King)
	ctx := MoveContext{Side: models.Left, Top: &top, SideCleared: true}
	assert.True(t, IsValidMove(c(models.Hearts, 2), ctx).Valid)
	assert.True(t, IsValidMove(c(models.Spades, 3), ctx).Valid)
	assert.False(t, IsValidMove(c(models.Clubs, 3), ctx).Valid)
}

func TestIsValidMove_MidTurnStacking(t *testing.T) {
	top := c(models.Hearts, 5)
	ctx := MoveContext{
		Side:           models.Left,
		Top:            &top,
		PlayedThisTurn: []models.Card{top},
		LockedSide:     sidePtr(models.Left),
	}

	assert.True(t, IsValidMove(c(models.Spades, 6), ctx).Valid)
	assert.Equal(t, ReasonConsecutiveRank, IsValidMove(c(models.Spades, 7), ctx).Reason)
	assert.Equal(t, ReasonOppositeColor, IsValidMove(c(models.Hearts, 6), ctx).Reason)
	assert.Equal(t, ReasonConsecutiveRank, IsValidMove(c(models.Spades, models.Ace), ctx).Reason,
		"mid-chain an ace must still follow the chain")

	right := ctx
	right.Side = models.Right
	right.Top = nil
	assert.Equal(t, ReasonSamePile, IsValidMove(c(models.Clubs, 2), right).Reason)
}

func TestIsValidMove_AfterAceInChainAnythingGoes(t *testing.T) {
	ctx := MoveContext{
		Side:           models.Right,
		PlayedThisTurn: []models.Card{c(models.Clubs, models.Ace)},
		LockedSide:     sidePtr(models.Right),
	}
	assert.True(t, IsValidMove(c(models.Clubs, 3), ctx).Valid)
	assert.True(t, IsValidMove(c(models.Diamonds, 10), ctx).Valid)
}

func TestIsValidMove_Deterministic(t *testing.T) {
	top := c(models.Clubs, 7)
	played := []models.Card{c(models.Diamonds, 8)}
	ctx := MoveContext{Side: models.Right, Top: &top, PlayedThisTurn: played, LockedSide: sidePtr(models.Right)}
	first := IsValidMove(c(models.Clubs, 9), ctx)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, IsValidMove(c(models.Clubs, 9), ctx))
	}
	assert.Len(t, played, 1, "inputs are not mutated")
	assert.Equal(t, models.Rank(7), top.Rank)
}
