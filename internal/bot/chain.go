package bot

import "github.com/jason-s-yu/clashkings/internal/models"

// ChainLength greedily counts how many cards could be stacked starting with
// starter on side, the starter included. The next link is the first card in
// hand order that is either rank+1 of the other color and allowed on side, or
// any ace at all. An ace is counted and ends the count, even when a real
// continuation sits later in the hand.
func ChainLength(starter models.Card, hand []models.Card, side models.PileSide) int {
	length := 1
	if starter.IsAce() {
		return length
	}

	rest := make([]models.Card, 0, len(hand))
	removed := false
	for _, c := range hand {
		if !removed && c.ID == starter.ID {
			removed = true
			continue
		}
		rest = append(rest, c)
	}

	cur := starter
	for {
		next := -1
		for i, c := range rest {
			if c.IsAce() || (c.Rank == cur.Rank+1 && c.Suit.AllowedOn(side) && c.Color() != cur.Color()) {
				next = i
				break
			}
		}
		if next < 0 {
			return length
		}
		length++
		if rest[next].IsAce() {
			return length
		}
		cur = rest[next]
		rest = append(rest[:next], rest[next+1:]...)
	}
}
