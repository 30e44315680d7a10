package rating

import (
	"fmt"
	"sort"
)

// Rating is the persisted skill estimate of one player name.
type Rating struct {
	Elo   float64 `json:"elo"`
	RD    float64 `json:"rd"`
	Sigma float64 `json:"sigma"`
}

// Default is the rating of a player with no history.
func Default() Rating {
	return Rating{Elo: DefaultMu, RD: DefaultPhi, Sigma: DefaultSigma}
}

func (r Rating) glicko() Glicko2Rating {
	if r.RD == 0 {
		r = Default()
	}
	return NewGlicko2Rating(r.Elo, r.RD, r.Sigma)
}

// RankScores converts cards left at game end into fractional scores. Fewer
// cards is better: the best rank scores 1.0, the worst 0.0 and ties share the
// average of the ranks they span.
func RankScores(cardsLeft []int) []float64 {
	n := len(cardsLeft)
	scores := make([]float64, n)
	if n < 2 {
		return scores
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return cardsLeft[order[i]] < cardsLeft[order[j]]
	})

	i := 0
	for i < n {
		j := i + 1
		for j < n && cardsLeft[order[j]] == cardsLeft[order[i]] {
			j++
		}
		// players i..j-1 are tied
		avgRank := float64(i+(j-1)) / 2
		fr := 1.0 - avgRank/float64(n-1)
		for k := i; k < j; k++ {
			scores[order[k]] = fr
		}
		i = j
	}
	return scores
}

// Update applies one game to the group. Each player is rated against the
// average of everyone else, which keeps a single pass meaningful for 3 and 4
// seat tables. Deviation and volatility carry over from the stored ratings.
func Update(ratings []Rating, scores []float64) ([]Rating, error) {
	if len(ratings) != len(scores) {
		return nil, fmt.Errorf("rating: %d ratings for %d scores", len(ratings), len(scores))
	}
	if len(ratings) < 2 {
		return nil, fmt.Errorf("rating: need at least 2 players, got %d", len(ratings))
	}

	var total float64
	for _, r := range ratings {
		total += r.glicko().ToElo()
	}

	out := make([]Rating, len(ratings))
	for i, r := range ratings {
		me := r.glicko()
		oppElo := (total - me.ToElo()) / float64(len(ratings)-1)
		opp := NewGlicko2Rating(oppElo, DefaultPhi, DefaultSigma)
		out[i] = updateGlicko(me, opp, scores[i]).ToRating()
	}
	return out, nil
}

// Finalize rates a finished game from the cards each seat still held.
func Finalize(ratings []Rating, cardsLeft []int) ([]Rating, error) {
	return Update(ratings, RankScores(cardsLeft))
}
