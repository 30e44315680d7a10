package models

import "sort"

// Player is one seat at the table. Seat ids are assigned sequentially and double
// as the turn order; seat 0 is the host (or the local player offline).
type Player struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Hand      []Card `json:"hand"`
	IsBot     bool   `json:"isBot"`
	Connected bool   `json:"connected"`
}

// AceCount returns how many aces the player currently holds.
func (p *Player) AceCount() int {
	n := 0
	for _, c := range p.Hand {
		if c.IsAce() {
			n++
		}
	}
	return n
}

// SortHand orders the hand ascending by rank. Equal ranks keep their relative order.
func (p *Player) SortHand() {
	SortByRank(p.Hand)
}

// SortByRank sorts cards ascending by rank, stable.
func SortByRank(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Rank < cards[j].Rank
	})
}

// Clone returns a deep copy so snapshots never alias live hands.
func (p Player) Clone() Player {
	out := p
	out.Hand = append([]Card(nil), p.Hand...)
	return out
}
