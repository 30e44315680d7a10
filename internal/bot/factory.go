package bot

import (
	"fmt"
	"math/rand"
)

// NewBrain creates a strategy for the given difficulty.
func NewBrain(level Difficulty, r *rand.Rand) (Brain, error) {
	switch level {
	case Beginner:
		if r == nil {
			return nil, fmt.Errorf("beginner bot needs a random source")
		}
		return &BeginnerBot{rng: r}, nil
	case Intermediate, Advanced:
		return &ChainBot{}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %q", level)
	}
}
