package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jason-s-yu/clashkings/internal/game"
)

// DefaultResultsChannel is the pub/sub channel game results are published on.
var DefaultResultsChannel = "clashkings_results"

// GameResult is the record handed to whatever tracks wins and experience.
type GameResult struct {
	Room        string   `json:"room"`
	WinnerSeat  int      `json:"winnerSeat"`
	WinnerName  string   `json:"winnerName"`
	WinnerIsBot bool     `json:"winnerIsBot"`
	Players     []string `json:"players"`
	Bots        []bool   `json:"bots"`      // parallel to Players
	CardsLeft   []int    `json:"cardsLeft"` // parallel to Players; the winner holds 0
	Version     uint64   `json:"version"`
	Timestamp   int64    `json:"timestamp"`
}

// ResultFromState summarizes a finished game. ok is false if nobody has won.
func ResultFromState(room string, s *game.GameState) (GameResult, bool) {
	if s.Status != game.StatusGameOver || s.Winner == nil {
		return GameResult{}, false
	}
	r := GameResult{
		Room:        room,
		WinnerSeat:  s.Winner.ID,
		WinnerName:  s.Winner.Name,
		WinnerIsBot: s.Winner.IsBot,
		Version:     s.Version,
		Timestamp:   time.Now().UnixMilli(),
	}
	for _, p := range s.Players {
		r.Players = append(r.Players, p.Name)
		r.Bots = append(r.Bots, p.IsBot)
		r.CardsLeft = append(r.CardsLeft, len(p.Hand))
	}
	return r, true
}

// PublishResult serializes the result and publishes it. Nothing is stored;
// with no subscriber the message is simply dropped.
func PublishResult(ctx context.Context, channel string, r GameResult) error {
	if Rdb == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal GameResult: %w", err)
	}
	if channel == "" {
		channel = DefaultResultsChannel
	}
	if err := Rdb.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to '%s': %w", channel, err)
	}
	return nil
}
