package bot

import (
	"fmt"
	"strings"

	"github.com/jason-s-yu/clashkings/internal/game"
)

// Difficulty selects the decision strategy.
type Difficulty string

const (
	Beginner     Difficulty = "BEGINNER"
	Intermediate Difficulty = "INTERMEDIATE"
	Advanced     Difficulty = "ADVANCED"
)

// ParseDifficulty accepts any casing; an empty string means Intermediate.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToUpper(strings.TrimSpace(s))); d {
	case "":
		return Intermediate, nil
	case Beginner, Intermediate, Advanced:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Brain is implemented by every bot strategy. Decide must return an action
// for seat that the engine would accept as coming from the turn holder.
type Brain interface {
	Decide(s *game.GameState, seat int) (game.Action, error)
}
