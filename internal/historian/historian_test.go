package historian

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/clashkings/internal/cache"
	"github.com/jason-s-yu/clashkings/internal/rating"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]Standing
}

func newMemStore() *memStore { return &memStore{rows: map[string]Standing{}} }

func (m *memStore) Load(_ context.Context, names []string) ([]Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Standing, len(names))
	for i, n := range names {
		st, ok := m.rows[n]
		if !ok {
			st = Standing{Name: n, Rating: rating.Default()}
		}
		out[i] = st
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, standings []Standing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range standings {
		m.rows[st.Name] = st
	}
	return nil
}

func (m *memStore) Top(_ context.Context, n int) ([]Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Standing
	for _, st := range m.rows {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating.Elo > out[j].Rating.Elo })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func sampleResult() cache.GameResult {
	return cache.GameResult{
		Room:       "K2M9P",
		WinnerSeat: 0,
		WinnerName: "Ada",
		Players:    []string{"Ada", "Onyx", "Bram"},
		Bots:       []bool{false, true, false},
		CardsLeft:  []int{0, 3, 5},
	}
}

func TestRecordUpdatesStandings(t *testing.T) {
	store := newMemStore()
	hs := NewService(store, 10, time.Hour, testLogger())

	require.NoError(t, hs.Record(context.Background(), sampleResult()))

	top, err := store.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "Ada", top[0].Name)
	assert.Equal(t, 1, top[0].Wins)
	assert.Equal(t, 1, top[0].Games)
	assert.Equal(t, "bot:Onyx", top[1].Name)
	assert.Equal(t, "Bram", top[2].Name)
	assert.Equal(t, 0, top[2].Wins)
	assert.Less(t, top[2].Rating.Elo, rating.DefaultMu)
}

func TestRecordRejectsIncompleteResult(t *testing.T) {
	hs := NewService(newMemStore(), 1, time.Hour, testLogger())
	r := sampleResult()
	r.CardsLeft = r.CardsLeft[:2]
	assert.Error(t, hs.Record(context.Background(), r))
}

func TestConsumeFlushesOnBatchSizeAndShutdown(t *testing.T) {
	store := newMemStore()
	hs := NewService(store, 2, time.Hour, testLogger())

	msgs := make(chan *redis.Message, 4)
	payload, err := json.Marshal(sampleResult())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hs.consume(ctx, msgs) }()

	msgs <- &redis.Message{Payload: "not json"}
	msgs <- &redis.Message{Payload: string(payload)}
	msgs <- &redis.Message{Payload: string(payload)}

	require.Eventually(t, func() bool {
		got, _ := store.Load(context.Background(), []string{"Ada"})
		return got[0].Games == 2
	}, time.Second, 10*time.Millisecond)

	msgs <- &redis.Message{Payload: string(payload)}
	require.Eventually(t, func() bool {
		hs.batchMu.Lock()
		defer hs.batchMu.Unlock()
		return len(hs.batch) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	got, _ := store.Load(context.Background(), []string{"Ada"})
	assert.Equal(t, 3, got[0].Games, "pending result flushed on shutdown")
	assert.Equal(t, 3, got[0].Wins)
}

func TestParseStandingDefaults(t *testing.T) {
	st := parseStanding("Ada", nil)
	assert.Equal(t, rating.Default(), st.Rating)

	st = parseStanding("Ada", map[string]string{"elo": "1612.5", "rd": "120", "sigma": "0.059", "games": "4", "wins": "3"})
	assert.Equal(t, 1612.5, st.Rating.Elo)
	assert.Equal(t, 4, st.Games)
	assert.Equal(t, 3, st.Wins)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	name := "test-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		rdb.Del(ctx, RatingKeyPrefix+name)
		rdb.ZRem(ctx, LeaderboardKey, name)
	})

	store := NewRedisStore(rdb)
	want := Standing{Name: name, Rating: rating.Rating{Elo: 9999, RD: 50, Sigma: 0.06}, Games: 7, Wins: 5}
	require.NoError(t, store.Save(ctx, []Standing{want}))

	got, err := store.Load(ctx, []string{name})
	require.NoError(t, err)
	assert.Equal(t, want, got[0])

	top, err := store.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, name, top[0].Name)
}
