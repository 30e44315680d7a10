// internal/historian/historian.go consumes published game results and keeps
// per-name ratings and win tallies.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jason-s-yu/clashkings/internal/cache"
	"github.com/jason-s-yu/clashkings/internal/rating"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// RatingKeyPrefix namespaces per-player rating hashes.
	RatingKeyPrefix = "clashkings:rating:"
	// LeaderboardKey is the sorted set of player names by rating.
	LeaderboardKey = "clashkings:leaderboard"
)

// Standing is one row of the leaderboard.
type Standing struct {
	Name   string        `json:"name"`
	Rating rating.Rating `json:"rating"`
	Games  int           `json:"games"`
	Wins   int           `json:"wins"`
}

// Store persists standings. Names are the identity; bots are stored under
// their display name with a "bot:" prefix so they never collide with people.
type Store interface {
	Load(ctx context.Context, names []string) ([]Standing, error)
	Save(ctx context.Context, standings []Standing) error
	Top(ctx context.Context, n int) ([]Standing, error)
}

// Service batches results from the results channel and folds them into the store.
type Service struct {
	store      Store
	batchSize  int
	flushDelay time.Duration
	logger     *logrus.Entry

	batchMu sync.Mutex
	batch   []cache.GameResult
}

func NewService(store Store, batchSize int, flushDelay time.Duration, logger *logrus.Entry) *Service {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Service{
		store:      store,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		logger:     logger,
		batch:      make([]cache.GameResult, 0, batchSize),
	}
}

// Run subscribes to channel and blocks until ctx is done.
func (hs *Service) Run(ctx context.Context, rdb *redis.Client, channel string) error {
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	hs.logger.Infof("historian listening on %s", channel)
	return hs.consume(ctx, sub.Channel())
}

// consume reads payloads until ctx is done, flushing on size or on the ticker.
func (hs *Service) consume(ctx context.Context, msgs <-chan *redis.Message) error {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// best effort with a fresh context so the last batch is not lost
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			hs.Flush(flushCtx)
			cancel()
			return nil
		case <-ticker.C:
			hs.Flush(ctx)
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("results subscription closed")
			}
			var r cache.GameResult
			if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil {
				hs.logger.Warnf("invalid game result: %v", err)
				continue
			}
			if hs.append(r) {
				hs.Flush(ctx)
			}
		}
	}
}

// append queues a result and reports whether the batch is full.
func (hs *Service) append(r cache.GameResult) bool {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.batch = append(hs.batch, r)
	return len(hs.batch) >= hs.batchSize
}

// Flush records every queued result in arrival order.
func (hs *Service) Flush(ctx context.Context) {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	batchCopy := make([]cache.GameResult, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]
	hs.batchMu.Unlock()

	recorded := 0
	for _, r := range batchCopy {
		if err := hs.Record(ctx, r); err != nil {
			hs.logger.Errorf("failed to record result of room %s: %v", r.Room, err)
			continue
		}
		recorded++
	}
	hs.logger.Debugf("flushed %d results", recorded)
}

// Record rates one finished game and bumps the tallies.
func (hs *Service) Record(ctx context.Context, r cache.GameResult) error {
	if len(r.Players) < 2 || len(r.CardsLeft) != len(r.Players) {
		return fmt.Errorf("result of room %s is incomplete", r.Room)
	}

	names := make([]string, len(r.Players))
	for i, p := range r.Players {
		names[i] = StandingName(p, i < len(r.Bots) && r.Bots[i])
	}
	standings, err := hs.store.Load(ctx, names)
	if err != nil {
		return err
	}

	ratings := make([]rating.Rating, len(standings))
	for i, s := range standings {
		ratings[i] = s.Rating
	}
	updated, err := rating.Finalize(ratings, r.CardsLeft)
	if err != nil {
		return err
	}
	for i := range standings {
		standings[i].Name = names[i]
		standings[i].Rating = updated[i]
		standings[i].Games++
		if i == r.WinnerSeat {
			standings[i].Wins++
		}
	}
	return hs.store.Save(ctx, standings)
}

// StandingName is the store identity of a seat.
func StandingName(name string, isBot bool) string {
	if isBot {
		return "bot:" + name
	}
	return name
}

// RedisStore keeps a hash per name and a sorted set ordered by rating.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, names []string) ([]Standing, error) {
	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, n := range names {
			cmds[i] = pipe.HGetAll(ctx, RatingKeyPrefix+n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}

	out := make([]Standing, len(names))
	for i, cmd := range cmds {
		out[i] = parseStanding(names[i], cmd.Val())
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, standings []Standing) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, st := range standings {
			pipe.HSet(ctx, RatingKeyPrefix+st.Name,
				"elo", st.Rating.Elo,
				"rd", st.Rating.RD,
				"sigma", st.Rating.Sigma,
				"games", st.Games,
				"wins", st.Wins,
			)
			pipe.ZAdd(ctx, LeaderboardKey, redis.Z{Score: st.Rating.Elo, Member: st.Name})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save ratings: %w", err)
	}
	return nil
}

func (s *RedisStore) Top(ctx context.Context, n int) ([]Standing, error) {
	names, err := s.rdb.ZRevRange(ctx, LeaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return s.Load(ctx, names)
}

func parseStanding(name string, fields map[string]string) Standing {
	st := Standing{Name: name, Rating: rating.Default()}
	if len(fields) == 0 {
		return st
	}
	num := func(key string, def float64) float64 {
		v, err := strconv.ParseFloat(fields[key], 64)
		if err != nil {
			return def
		}
		return v
	}
	st.Rating.Elo = num("elo", rating.DefaultMu)
	st.Rating.RD = num("rd", rating.DefaultPhi)
	st.Rating.Sigma = num("sigma", rating.DefaultSigma)
	st.Games = int(num("games", 0))
	st.Wins = int(num("wins", 0))
	return st
}
