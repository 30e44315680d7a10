package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/models"
)

// chatLines is how much of the chat log is shown under the table.
const chatLines = 3

// screen serializes output from the input loop and the engine or network callbacks.
type screen struct {
	mu   sync.Mutex
	w    io.Writer
	last uint64
}

func newScreen(w io.Writer) *screen {
	return &screen{w: w}
}

// render draws a snapshot unless an equal or newer version was already drawn.
func (s *screen) render(st *game.GameState, seat int, force bool) {
	if st == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !force && st.Version != 0 && st.Version <= s.last {
		return
	}
	s.last = st.Version
	renderState(s.w, st, seat)
}

func (s *screen) notice(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "! %s\n", text)
}

func (s *screen) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// renderState writes the table as seen from seat.
func renderState(w io.Writer, st *game.GameState, seat int) {
	var b strings.Builder

	b.WriteString("\n== ")
	b.WriteString(headline(st, seat))
	b.WriteString(" ==\n")

	fmt.Fprintf(&b, "Left:  %s\n", pileLabel(&st.LeftPile))
	fmt.Fprintf(&b, "Right: %s\n", pileLabel(&st.RightPile))
	fmt.Fprintf(&b, "Deck:  %d\n", len(st.Deck))

	for i, p := range st.Players {
		marker := "  "
		if i == st.CurrentPlayerIndex && st.Status != game.StatusSetup && st.Status != game.StatusGameOver {
			marker = "> "
		}
		var tags []string
		if p.ID == seat {
			tags = append(tags, "you")
		}
		if p.IsBot {
			tags = append(tags, "bot")
		}
		if !p.Connected {
			tags = append(tags, "disconnected")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " (" + strings.Join(tags, ", ") + ")"
		}
		fmt.Fprintf(&b, "%s%s%s: %d cards\n", marker, p.Name, suffix, len(p.Hand))
	}

	if me := st.PlayerBySeat(seat); me != nil && len(me.Hand) > 0 {
		myTurn := st.CurrentPlayer() != nil && st.CurrentPlayer().ID == seat &&
			(st.Status == game.StatusPlaying || st.Status == game.StatusTutorial)
		b.WriteString("Hand: ")
		for i, c := range me.Hand {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%d:%s", i, c)
			if myTurn {
				if sides := sideTags(game.LegalSides(st, c)); sides != "" {
					b.WriteString("[" + sides + "]")
				}
			}
		}
		b.WriteString("\n")
	}

	start := len(st.Chat) - chatLines
	if start < 0 {
		start = 0
	}
	for _, m := range st.Chat[start:] {
		fmt.Fprintf(&b, "  <%s> %s\n", m.PlayerName, m.Text)
	}

	_, _ = io.WriteString(w, b.String())
}

func headline(st *game.GameState, seat int) string {
	switch st.Status {
	case game.StatusGameOver:
		if st.Winner == nil {
			return "Game over"
		}
		if st.Winner.ID == seat {
			return "You won!"
		}
		return st.Winner.Name + " won"
	case game.StatusSetup:
		return fmt.Sprintf("Waiting for players (%d seated)", len(st.Players))
	}
	return game.Describe(st.Message, seat, st.Players)
}

func pileLabel(p *game.Pile) string {
	top := p.Top()
	switch {
	case top == nil:
		return "empty"
	case p.Cleared:
		return fmt.Sprintf("%s cleared (%d)", top, len(p.Cards))
	}
	return fmt.Sprintf("%s (%d)", top, len(p.Cards))
}

func sideTags(sides []models.PileSide) string {
	var out string
	for _, s := range sides {
		out += string(s)[:1]
	}
	return out
}
