package session

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jason-s-yu/clashkings/internal/bot"
	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/models"
	"github.com/sirupsen/logrus"
)

// OfflineConfig describes a single player game against bots.
type OfflineConfig struct {
	Name          string
	Bots          int
	Difficulty    bot.Difficulty
	Rules         game.Rules
	Personalities bot.Personalities
	TurnDelay     time.Duration
	DrawDelay     time.Duration
	Seed          int64
}

// Offline runs the engine in process. The local player always sits at seat 0
// and the bots act through the same Apply path as a remote seat would.
type Offline struct {
	Seat int

	engine  *game.Engine
	driver  *bot.Driver
	chatter *bot.Chatter
	cfg     OfflineConfig
	rng     *rand.Rand
}

func NewOffline(cfg OfflineConfig, logger *logrus.Entry) (*Offline, error) {
	if cfg.Bots < 1 || cfg.Bots > 3 {
		return nil, fmt.Errorf("bots must be between 1 and 3, got %d", cfg.Bots)
	}
	if cfg.Rules.HandSize == 0 {
		cfg.Rules = game.DefaultRules()
	}
	if cfg.Personalities == nil {
		cfg.Personalities = bot.DefaultPersonalities()
	}
	if cfg.Name == "" {
		cfg.Name = "You"
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	o := &Offline{cfg: cfg, rng: rand.New(rand.NewSource(seed + 1))}
	brain, err := bot.NewBrain(cfg.Difficulty, o.rng)
	if err != nil {
		return nil, err
	}
	o.engine = game.NewEngine(nil, rand.New(rand.NewSource(seed)))
	o.driver = bot.NewDriver(o.engine, brain, logger.WithField("component", "bots"))
	if cfg.TurnDelay > 0 {
		o.driver.TurnDelay = cfg.TurnDelay
	}
	if cfg.DrawDelay > 0 {
		o.driver.DrawDelay = cfg.DrawDelay
	}
	o.chatter = bot.NewChatter(o.engine, cfg.Personalities, rand.New(rand.NewSource(seed+2)), logger.WithField("component", "chatter"))
	return o, nil
}

// Start deals a new game. It can be called again after game over.
func (o *Offline) Start() error {
	players := []models.Player{{ID: 0, Name: o.cfg.Name, Connected: true}}
	for _, name := range bot.PickNames(o.cfg.Bots, o.rng) {
		players = append(players, models.Player{ID: len(players), Name: name, IsBot: true, Connected: true})
	}
	return o.engine.Deal(players, o.cfg.Rules)
}

// Subscribe registers a listener on the underlying engine.
func (o *Offline) Subscribe(fn game.Listener) { o.engine.Subscribe(fn) }

// SetNoticeFn routes rule violations of the local seat.
func (o *Offline) SetNoticeFn(fn func(text string)) {
	o.engine.NoticeFn = func(seat int, reason string) {
		if seat == o.Seat {
			fn(reason)
		}
	}
}

func (o *Offline) Snapshot() *game.GameState { return o.engine.Snapshot() }

func (o *Offline) Play(index int, side models.PileSide) error {
	return o.engine.Apply(game.Play(o.Seat, index, side))
}

func (o *Offline) Draw() error { return o.engine.Apply(game.Draw(o.Seat)) }

func (o *Offline) EndTurn() error { return o.engine.Apply(game.EndTurn(o.Seat)) }

func (o *Offline) Say(text string) error {
	return o.engine.Apply(game.Chat(models.ChatMessage{PlayerID: o.Seat, Text: text}))
}

// Close stops the bots.
func (o *Offline) Close() {
	o.driver.Stop()
	o.chatter.Stop()
}
