package protocol

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		code := GenerateCode(r)
		require.Len(t, code, CodeLength)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, ch), "unexpected %q in %s", ch, code)
		}
	}
}

func TestAddressMapping(t *testing.T) {
	assert.Equal(t, "clash-kings-v2-AB3CD", Address("ab3cd"))
	code, ok := CodeFromAddress("clash-kings-v2-AB3CD")
	assert.True(t, ok)
	assert.Equal(t, "AB3CD", code)
	_, ok = CodeFromAddress("someone-else")
	assert.False(t, ok)
}

func TestParseJoinInput(t *testing.T) {
	cases := map[string]string{
		"ab3cd":                                 "clash-kings-v2-AB3CD",
		"  XY7ZQ ":                              "clash-kings-v2-XY7ZQ",
		"https://clash.example/?join=K2M9P":     "clash-kings-v2-K2M9P",
		"https://clash.example/?join=k2m9p&x=1": "clash-kings-v2-K2M9P",
		"clash-kings-v2-K2M9P":                  "clash-kings-v2-K2M9P",
		"some-long-peer-identifier":             "some-long-peer-identifier",
	}
	for in, want := range cases {
		got, err := ParseJoinInput(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseJoinInput("   ")
	assert.ErrorIs(t, err, ErrEmptyJoinInput)
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://clash.example/?join=K2M9P", JoinURL("https://clash.example/", "K2M9P"))
	assert.Equal(t, "https://clash.example/?join=K2M9P", JoinURL("https://clash.example/?join=OLD", "K2M9P"))
}

func TestActionRoundTrip(t *testing.T) {
	actions := []game.Action{
		game.Play(2, 3, models.Right),
		game.Draw(1),
		game.EndTurn(0),
	}
	for _, a := range actions {
		env, err := FromAction(a)
		require.NoError(t, err)
		assert.Equal(t, MessageType(a.Type), env.Type)
		back, err := ToAction(env)
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}

	chat := game.Chat(models.ChatMessage{ID: "m1", PlayerID: 1, PlayerName: "Ana", Text: "hi", Timestamp: 5})
	env, err := FromAction(chat)
	require.NoError(t, err)
	back, err := ToAction(env)
	require.NoError(t, err)
	assert.Equal(t, chat, back)
}

func TestWireFormat(t *testing.T) {
	raw := []byte(`{"type":"PLAY_CARD","payload":{"playerId":1,"index":0,"side":"LEFT"}}`)
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	a, err := ToAction(env)
	require.NoError(t, err)
	assert.Equal(t, game.Play(1, 0, models.Left), a)

	seat := 2
	sync, err := Sync(game.NewSetupState(nil), &seat)
	require.NoError(t, err)
	data, err := json.Marshal(sync)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"yourId":2`)
	assert.Contains(t, string(data), `"status":"SETUP"`)

	ping, err := New(TypePing, nil)
	require.NoError(t, err)
	data, _ = json.Marshal(ping)
	assert.JSONEq(t, `{"type":"PING"}`, string(data))
}

func TestToAction_Errors(t *testing.T) {
	_, err := ToAction(Envelope{Type: TypeReady})
	assert.ErrorIs(t, err, game.ErrUnknownAction)

	_, err = ToAction(Envelope{Type: TypeDrawCard})
	assert.Error(t, err, "missing payload")

	_, err = ToAction(Envelope{Type: TypePlayCard, Payload: json.RawMessage(`{"index":"x"}`)})
	assert.Error(t, err)
}
