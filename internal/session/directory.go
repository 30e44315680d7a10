package session

import (
	"context"
	"sync"
)

// Directory maps room codes to the node serving them. Register fails with
// ErrAddressTaken if the code is already in use.
type Directory interface {
	Register(ctx context.Context, code, node string) error
	Resolve(ctx context.Context, code string) (string, error)
	Release(ctx context.Context, code string) error
}

// MemoryDirectory is the single node Directory used when Redis is disabled.
type MemoryDirectory struct {
	mu    sync.Mutex
	rooms map[string]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{rooms: make(map[string]string)}
}

func (d *MemoryDirectory) Register(_ context.Context, code, node string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.rooms[code]; ok {
		return ErrAddressTaken
	}
	d.rooms[code] = node
	return nil
}

func (d *MemoryDirectory) Resolve(_ context.Context, code string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	node, ok := d.rooms[code]
	if !ok {
		return "", ErrRoomNotFound
	}
	return node, nil
}

func (d *MemoryDirectory) Release(_ context.Context, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rooms, code)
	return nil
}
