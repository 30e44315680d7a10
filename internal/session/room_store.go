// internal/session/room_store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/clashkings/internal/game"
	"github.com/jason-s-yu/clashkings/internal/protocol"
	"github.com/sirupsen/logrus"
)

// maxCodeCollisions bounds how many fresh codes CreateRoom tries.
const maxCodeCollisions = 5

// DefaultAbandonAfter is how long a new room waits for its first connection.
const DefaultAbandonAfter = 2 * time.Minute

// RoomStore manages the rooms hosted by this process.
// It provides thread-safe access to add, retrieve, and delete rooms.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Host // keyed by room code

	directory Directory
	node      string // address other nodes use to reach this one
	retry     RetryPolicy
	abandon   time.Duration
	cfg       HostConfig
	logger    *logrus.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	// OnGameOver is installed on every room created by the store.
	OnGameOver func(h *Host, final *game.GameState)
}

func NewRoomStore(dir Directory, node string, cfg HostConfig, logger *logrus.Logger) *RoomStore {
	if dir == nil {
		dir = NewMemoryDirectory()
	}
	return &RoomStore{
		rooms:     make(map[string]*Host),
		directory: dir,
		node:      node,
		retry:     DefaultRetryPolicy(),
		abandon:   DefaultAbandonAfter,
		cfg:       cfg,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom registers a fresh code and opens a host for it. A code already
// taken is replaced by a new one; any other failure is retried per policy.
func (s *RoomStore) CreateRoom(ctx context.Context, hostName string) (*Host, error) {
	var lastErr error
	for i := 0; i < maxCodeCollisions; i++ {
		s.rngMu.Lock()
		code := protocol.GenerateCode(s.rng)
		s.rngMu.Unlock()

		_, err := Establish(ctx, s.retry, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.directory.Register(ctx, code, s.node)
		})
		if errors.Is(err, ErrAddressTaken) {
			lastErr = err
			s.logger.Debugf("room code %s taken, generating another", code)
			continue
		}
		if err != nil {
			return nil, err
		}

		h, err := NewHost(code, hostName, s.cfg, logrus.NewEntry(s.logger))
		if err != nil {
			_ = s.directory.Release(ctx, code)
			return nil, err
		}
		h.OnEmpty = func(h *Host) { s.DeleteRoom(h.Code) }
		h.OnGameOver = s.OnGameOver
		s.AddRoom(h)
		time.AfterFunc(s.abandon, func() {
			if h.PeerCount() == 0 {
				if cur, ok := s.GetRoom(h.Code); ok && cur == h {
					s.logger.Infof("RoomStore: room %s abandoned before anyone connected", h.Code)
					s.DeleteRoom(h.Code)
				}
			}
		})
		return h, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrConnectFailed, lastErr)
}

// AddRoom adds a host to the store. Configure OnEmpty before adding it to
// ensure automatic cleanup when the last connection leaves.
func (s *RoomStore) AddRoom(h *Host) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[h.Code]; exists {
		s.logger.Warnf("RoomStore: attempted to add room %s which already exists", h.Code)
		return
	}
	s.rooms[h.Code] = h
	s.logger.Infof("RoomStore: added room %s", h.Code)
}

// GetRoom looks a room up by code or by full address.
func (s *RoomStore) GetRoom(codeOrAddress string) (*Host, bool) {
	code := strings.ToUpper(codeOrAddress)
	if c, ok := protocol.CodeFromAddress(codeOrAddress); ok {
		code = c
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.rooms[code]
	return h, ok
}

// Resolve finds the node serving a code, which may be another process.
func (s *RoomStore) Resolve(ctx context.Context, code string) (string, error) {
	if _, ok := s.GetRoom(code); ok {
		return s.node, nil
	}
	return s.directory.Resolve(ctx, strings.ToUpper(code))
}

// DeleteRoom closes a room and releases its code.
func (s *RoomStore) DeleteRoom(code string) {
	s.mu.Lock()
	h, exists := s.rooms[code]
	delete(s.rooms, code)
	s.mu.Unlock()
	if !exists {
		s.logger.Warnf("RoomStore: attempted to delete non-existent room %s", code)
		return
	}
	h.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.directory.Release(ctx, code); err != nil {
		s.logger.Warnf("RoomStore: failed to release %s: %v", code, err)
	}
	s.logger.Infof("RoomStore: deleted room %s", code)
}

// Len is the number of rooms hosted here.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// CloseAll shuts every room down.
func (s *RoomStore) CloseAll() {
	s.mu.Lock()
	codes := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	s.mu.Unlock()
	for _, code := range codes {
		s.DeleteRoom(code)
	}
}
