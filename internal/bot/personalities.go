package bot

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
)

// LineKind is the event a personality line reacts to.
type LineKind string

const (
	LinePlayerAce LineKind = "PLAYER_ACE" // a human played an ace
	LineBotAce    LineKind = "BOT_ACE"    // this bot played an ace
	LinePlayerLow LineKind = "PLAYER_LOW" // a human is down to 1-2 cards
	LineBotLow    LineKind = "BOT_LOW"    // this bot is down to 1-2 cards
	LineWin       LineKind = "WIN"        // this bot won
	LineLose      LineKind = "LOSE"       // a human won
)

// FallbackPersonality is used for names with no entry.
const FallbackPersonality = "Ironclad"

// Personality is a chat style plus line pools per event.
type Personality struct {
	Style string                `json:"style"`
	Lines map[LineKind][]string `json:"lines"`
}

// Personalities maps bot name to personality.
type Personalities map[string]Personality

//go:embed personalities.json
var defaultPersonalitiesJSON []byte

// DefaultPersonalities parses the built-in table.
func DefaultPersonalities() Personalities {
	var ps Personalities
	if err := json.Unmarshal(defaultPersonalitiesJSON, &ps); err != nil {
		panic(fmt.Sprintf("bot: embedded personalities are invalid: %v", err))
	}
	return ps
}

// LoadPersonalities reads a JSON table from path and layers it over the defaults.
// Entries in the file replace built-in entries of the same name.
func LoadPersonalities(path string) (Personalities, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot personalities: %w", err)
	}
	var custom Personalities
	if err := json.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot personalities: %w", err)
	}
	ps := DefaultPersonalities()
	for name, p := range custom {
		ps[name] = p
	}
	return ps, nil
}

// Get returns the personality for name, falling back to Ironclad.
func (ps Personalities) Get(name string) Personality {
	if p, ok := ps[name]; ok {
		return p
	}
	return ps[FallbackPersonality]
}

// Line picks a random line of the given kind. ok is false if the pool is empty.
func (ps Personalities) Line(name string, kind LineKind, r *rand.Rand) (string, bool) {
	pool := ps.Get(name).Lines[kind]
	if len(pool) == 0 {
		return "", false
	}
	return pool[r.Intn(len(pool))], true
}
