// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/clashkings/internal/session"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// RoomKeyPrefix namespaces room directory entries.
const RoomKeyPrefix = "clashkings:room:"

// ErrNotConnected is returned when Redis was never connected.
var ErrNotConnected = errors.New("redis is not connected")

// ConnectRedis initializes the global Redis client and pings it.
func ConnectRedis(addr string, db int) error {
	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// RoomDirectory stores room code -> node address with a TTL so any server
// node can tell a joiner where a room lives.
type RoomDirectory struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRoomDirectory uses rdb, or the global client if rdb is nil.
func NewRoomDirectory(rdb *redis.Client, ttl time.Duration) *RoomDirectory {
	if rdb == nil {
		rdb = Rdb
	}
	return &RoomDirectory{rdb: rdb, ttl: ttl}
}

func roomKey(code string) string {
	return RoomKeyPrefix + code
}

// Register claims a code. A code already present fails with session.ErrAddressTaken.
func (d *RoomDirectory) Register(ctx context.Context, code, node string) error {
	if d.rdb == nil {
		return ErrNotConnected
	}
	ok, err := d.rdb.SetNX(ctx, roomKey(code), node, d.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to register room %s: %w", code, err)
	}
	if !ok {
		return session.ErrAddressTaken
	}
	return nil
}

// Resolve returns the node serving a code.
func (d *RoomDirectory) Resolve(ctx context.Context, code string) (string, error) {
	if d.rdb == nil {
		return "", ErrNotConnected
	}
	node, err := d.rdb.Get(ctx, roomKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", session.ErrRoomNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve room %s: %w", code, err)
	}
	return node, nil
}

// Release frees a code.
func (d *RoomDirectory) Release(ctx context.Context, code string) error {
	if d.rdb == nil {
		return ErrNotConnected
	}
	if err := d.rdb.Del(ctx, roomKey(code)).Err(); err != nil {
		return fmt.Errorf("failed to release room %s: %w", code, err)
	}
	return nil
}
