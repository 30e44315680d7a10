package bot

import (
	"math/rand"
	"testing"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(suit models.Suit, rank models.Rank) models.Card {
	return models.Card{ID: string(suit) + "-" + rank.Label(), Suit: suit, Rank: rank}
}

// tableState puts seat 1 (a bot) on turn with the given hand.
func tableState(hand []models.Card, left, right []models.Card) *game.GameState {
	return &game.GameState{
		Deck: []models.Card{card(models.Clubs, 9)},
		Players: []models.Player{
			{ID: 0, Name: "Host", Hand: []models.Card{card(models.Hearts, 2)}},
			{ID: 1, Name: "Onyx", IsBot: true, Hand: hand},
		},
		CurrentPlayerIndex: 1,
		LeftPile:           game.Pile{Side: models.Left, Cards: left},
		RightPile:          game.Pile{Side: models.Right, Cards: right},
		Status:             game.StatusPlaying,
		Rules:              game.DefaultRules(),
	}
}

func TestDecide_ContinuesChainWithLowest(t *testing.T) {
	s := tableState(
		[]models.Card{card(models.Clubs, 7), card(models.Diamonds, 7), card(models.Hearts, 8)},
		[]models.Card{card(models.Spades, 4)},
		[]models.Card{card(models.Clubs, 5), card(models.Diamonds, 6)},
	)
	side := models.Right
	s.CardsPlayedThisTurn = []models.Card{card(models.Diamonds, 6)}
	s.LastPileSidePlayed = &side

	a, err := ChainBot{}.Decide(s, 1)
	require.NoError(t, err)
	assert.Equal(t, game.Play(1, 0, models.Right), a, "Club 7 is the only legal follow-up")
}

func TestDecide_ClosesChainWhenStuck(t *testing.T) {
	s := tableState(
		[]models.Card{card(models.Hearts, 10)},
		[]models.Card{card(models.Spades, 4)},
		[]models.Card{card(models.Diamonds, 6)},
	)
	side := models.Right
	s.CardsPlayedThisTurn = []models.Card{card(models.Diamonds, 6)}
	s.LastPileSidePlayed = &side

	a, err := ChainBot{}.Decide(s, 1)
	require.NoError(t, err)
	assert.Equal(t, game.EndTurn(1), a)
}

func TestDecide_PrefersLongestChain(t *testing.T) {
	// H5 on the left chains into S6 and H7; C9 on the right stands alone.
	hand := []models.Card{card(models.Hearts, 5), card(models.Spades, 6), card(models.Hearts, 7), card(models.Clubs, 9)}
	s := tableState(hand, []models.Card{card(models.Spades, 4)}, []models.Card{card(models.Diamonds, 8)})

	a, err := ChainBot{}.Decide(s, 1)
	require.NoError(t, err)
	assert.Equal(t, game.Play(1, 0, models.Left), a)
}

func TestDecide_TiesGoToHandOrder(t *testing.T) {
	hand := []models.Card{card(models.Hearts, 9), card(models.Diamonds, 9)}
	s := tableState(hand, []models.Card{card(models.Spades, 4)}, []models.Card{card(models.Clubs, 4)})

	a, err := ChainBot{}.Decide(s, 1)
	require.NoError(t, err)
	assert.Equal(t, game.Play(1, 0, models.Left), a)
}

func TestDecide_BeginnerPicksAmongNonAceOpeners(t *testing.T) {
	hand := []models.Card{card(models.Hearts, 9), card(models.Diamonds, 9), card(models.Spades, models.Ace)}
	s := tableState(hand, []models.Card{card(models.Spades, 4)}, []models.Card{card(models.Clubs, 4)})
	b, err := NewBrain(Beginner, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	seen := map[int]bool{}
	for i := 0; i < 100; i++ {
		a, err := b.Decide(s, 1)
		require.NoError(t, err)
		require.Equal(t, game.ActionPlayCard, a.Type)
		assert.NotEqual(t, 2, a.HandIndex, "aces are held back while other openers exist")
		seen[a.HandIndex] = true
	}
	assert.Len(t, seen, 2)
}

func TestDecide_AceWhenNothingElse(t *testing.T) {
	hand := []models.Card{card(models.Hearts, 2), card(models.Clubs, models.Ace), card(models.Spades, models.Ace)}
	s := tableState(hand, []models.Card{card(models.Spades, 10)}, []models.Card{card(models.Diamonds, 10)})

	a, err := ChainBot{}.Decide(s, 1)
	require.NoError(t, err)
	assert.Equal(t, game.Play(1, 1, models.Right), a, "first ace opener in hand order")
}

func TestDecide_DrawOrPass(t *testing.T) {
	hand := []models.Card{card(models.Hearts, 2)}
	s := tableState(hand, []models.Card{card(models.Spades, 10)}, []models.Card{card(models.Diamonds, 10)})

	a, err := ChainBot{}.Decide(s, 1)
	require.NoError(t, err)
	assert.Equal(t, game.Draw(1), a)

	s.Deck = nil
	a, err = ChainBot{}.Decide(s, 1)
	require.NoError(t, err)
	assert.Equal(t, game.EndTurn(1), a)
}

func TestDecide_UnknownSeat(t *testing.T) {
	s := tableState(nil, nil, nil)
	_, err := ChainBot{}.Decide(s, 9)
	assert.ErrorIs(t, err, game.ErrUnknownSeat)
}

func TestNewBrain(t *testing.T) {
	for _, lvl := range []Difficulty{Intermediate, Advanced} {
		b, err := NewBrain(lvl, nil)
		require.NoError(t, err)
		assert.IsType(t, &ChainBot{}, b)
	}
	_, err := NewBrain(Beginner, nil)
	assert.Error(t, err)
	_, err = NewBrain("GOD", nil)
	assert.Error(t, err)

	d, err := ParseDifficulty("advanced")
	require.NoError(t, err)
	assert.Equal(t, Advanced, d)
	d, err = ParseDifficulty("")
	require.NoError(t, err)
	assert.Equal(t, Intermediate, d)
	_, err = ParseDifficulty("expert")
	assert.Error(t, err)
}

// Bots must only ever produce actions the engine accepts.
func TestBots_NeverRejected(t *testing.T) {
	for seed := int64(1); seed <= 15; seed++ {
		r := rand.New(rand.NewSource(seed))
		players := []models.Player{
			{Name: "Ironclad", IsBot: true}, {Name: "Viper", IsBot: true},
			{Name: "Raven", IsBot: true}, {Name: "Storm", IsBot: true},
		}
		s, err := game.Deal(players, game.DefaultRules(), r)
		require.NoError(t, err)
		e := game.NewEngine(s, r)

		beginner, err := NewBrain(Beginner, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		brains := []Brain{beginner, &ChainBot{}}

		for step := 0; step < 5000; step++ {
			cur := e.Snapshot()
			if cur.Status != game.StatusPlaying {
				break
			}
			seat := cur.CurrentPlayer().ID
			a, err := brains[seat%2].Decide(cur, seat)
			require.NoError(t, err)
			require.NoError(t, e.Apply(a), "seed %d step %d: %+v", seed, step, a)
			require.Equal(t, game.DeckSize, e.Snapshot().CardCount())
		}
	}
}
