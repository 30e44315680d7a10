package game

import (
	"testing"

	"github.com/jason-s-yu/clashkings/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMessageCodes(t *testing.T) {
	assert.Equal(t, "TURN|2", TurnMessage(2))
	assert.Equal(t, "DRAW|1", DrawMessage(1))
	assert.Equal(t, "PLAY|0|Q|♦", PlayMessage(0, c(models.Diamonds, models.Queen)))
	assert.Equal(t, "PLAY|3|10|♣", PlayMessage(3, c(models.Clubs, 10)))

	ev := ParseMessage("PLAY|3|10|♣")
	assert.Equal(t, EventMessage{Code: CodePlay, Seat: 3, Card: "10♣"}, ev)
	assert.Equal(t, -1, ParseMessage("SETUP|WAITING").Seat)
	assert.Equal(t, -1, ParseMessage("TURN|x").Seat)
}

func TestDescribe(t *testing.T) {
	players := []models.Player{{ID: 0, Name: "Host"}, {ID: 1, Name: "Raven"}}

	cases := []struct {
		msg    string
		viewer int
		want   string
	}{
		{"TURN|0", 0, "Your Turn"},
		{"TURN|1", 0, "Raven's Turn"},
		{"TURN|4", 0, "Player 5's Turn"},
		{"PLAY|1|K|♥", 0, "Raven played K♥"},
		{"PLAY|0|K|♥", 0, "You played K♥"},
		{"DRAW|0", 0, "Card Drawn"},
		{"DRAW|1", 0, "Raven drew a card"},
		{"PASS|1", 1, "You Passed"},
		{"PASS|1", 0, "Raven Passed"},
		{"SETUP|WAITING", 0, "Clash of Kings"},
		{"something else", 0, "something else"},
		{"", 0, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Describe(tc.msg, tc.viewer, players), tc.msg)
	}
}
