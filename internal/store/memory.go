// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nikokadi/kadi/internal/kadi"
)

// Memory is an in-memory persistence gateway for tests and single-node
// deployments. Save and Load both deep-copy, so callers never alias the
// stored state.
type Memory struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*kadi.Room
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rooms: make(map[uuid.UUID]*kadi.Room)}
}

// SaveRoom stores a snapshot of the room.
func (m *Memory) SaveRoom(_ context.Context, room *kadi.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.RoomID] = room.Clone()
	return nil
}

// LoadRoom returns a snapshot of the stored room.
func (m *Memory) LoadRoom(_ context.Context, roomID uuid.UUID) (*kadi.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, kadi.ErrRoomNotFound
	}
	return room.Clone(), nil
}

// ListActiveRooms returns snapshots of every room that has not terminated.
func (m *Memory) ListActiveRooms(_ context.Context) ([]*kadi.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*kadi.Room
	for _, room := range m.rooms {
		if !room.IsTerminated {
			out = append(out, room.Clone())
		}
	}
	return out, nil
}
