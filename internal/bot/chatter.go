package bot

import (
	"math/rand"
	"sync"
	"time"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/models"
	"github.com/sirupsen/logrus"
)

// Chatter makes bot seats react in chat to aces, nearly empty hands and the
// end of the game. Lines are posted as SEND_CHAT actions after a short delay.
type Chatter struct {
	engine        *game.Engine
	personalities Personalities
	logger        *logrus.Entry

	Chance   float64       // probability of reacting to an ace or a low hand
	MinDelay time.Duration // delay before a line is posted
	MaxDelay time.Duration

	mu      sync.Mutex // guards rng, timers, nextID and stopped
	rng     *rand.Rand
	timers  map[int]*time.Timer // pending lines only
	nextID  int
	stopped bool
}

// NewChatter subscribes a chatter to the engine.
func NewChatter(e *game.Engine, ps Personalities, r *rand.Rand, logger *logrus.Entry) *Chatter {
	c := &Chatter{
		engine:        e,
		personalities: ps,
		logger:        logger,
		Chance:        0.65,
		MinDelay:      1000 * time.Millisecond,
		MaxDelay:      2500 * time.Millisecond,
		rng:           r,
		timers:        map[int]*time.Timer{},
	}
	e.Subscribe(c.Observe)
	return c
}

// Observe inspects a committed change for something worth a remark.
func (c *Chatter) Observe(ch game.Change) {
	s := ch.State
	if s.Status == game.StatusTutorial || ch.Action == nil {
		return
	}

	if ch.GameOver && s.Winner != nil {
		if s.Winner.IsBot {
			c.say(*s.Winner, LineWin, true)
			return
		}
		for _, p := range s.Players {
			if p.IsBot {
				c.say(p, LineLose, true)
			}
		}
		return
	}

	if ch.Played == nil {
		return
	}
	actor := s.PlayerBySeat(ch.Action.Seat)
	if actor == nil {
		return
	}

	if ch.Played.IsAce() {
		c.react(s, *actor, LineBotAce, LinePlayerAce)
	}
	if n := len(actor.Hand); n > 0 && n <= 2 {
		c.react(s, *actor, LineBotLow, LinePlayerLow)
	}
}

// react has the actor speak if it is a bot, otherwise a random bot answers.
func (c *Chatter) react(s *game.GameState, actor models.Player, self, other LineKind) {
	if actor.IsBot {
		c.say(actor, self, false)
		return
	}
	var bots []models.Player
	for _, p := range s.Players {
		if p.IsBot {
			bots = append(bots, p)
		}
	}
	if len(bots) == 0 {
		return
	}
	c.mu.Lock()
	pick := bots[c.rng.Intn(len(bots))]
	c.mu.Unlock()
	c.say(pick, other, false)
}

func (c *Chatter) say(p models.Player, kind LineKind, always bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if !always && c.rng.Float64() > c.Chance {
		return
	}
	line, ok := c.personalities.Line(p.Name, kind, c.rng)
	if !ok {
		return
	}
	delay := c.MinDelay
	if spread := c.MaxDelay - c.MinDelay; spread > 0 {
		delay += time.Duration(c.rng.Int63n(int64(spread)))
	}

	msg := models.ChatMessage{PlayerID: p.ID, PlayerName: p.Name, Text: line}
	id := c.nextID
	c.nextID++
	c.timers[id] = time.AfterFunc(delay, func() {
		c.mu.Lock()
		delete(c.timers, id)
		stopped := c.stopped
		c.mu.Unlock()
		if stopped {
			return
		}
		if err := c.engine.Apply(game.Chat(msg)); err != nil {
			c.logger.Debugf("bot chat from %s dropped: %v", p.Name, err)
		}
	})
}

// pending is the number of lines waiting to be posted.
func (c *Chatter) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Stop cancels pending lines.
func (c *Chatter) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
