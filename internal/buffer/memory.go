package buffer

import (
	"context"
	"sync"
)

// ring is a fixed-size circular buffer. head is the slot of the oldest chunk.
type ring struct {
	slots [Capacity][]byte
	head  int
	size  int
}

func (r *ring) push(chunk []byte) {
	if r.size < Capacity {
		r.slots[(r.head+r.size)%Capacity] = chunk
		r.size++
		return
	}
	r.slots[r.head] = chunk
	r.head = (r.head + 1) % Capacity
}

func (r *ring) items() [][]byte {
	out := make([][]byte, r.size)
	for i := range r.size {
		out[i] = r.slots[(r.head+i)%Capacity]
	}
	return out
}

// MemoryStore keeps chunks in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	rooms map[string]*ring
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*ring)}
}

func (s *MemoryStore) Push(_ context.Context, roomID string, chunk []byte) error {
	c := make([]byte, len(chunk))
	copy(c, chunk)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		r = &ring{}
		s.rooms[roomID] = r
	}
	r.push(c)
	return nil
}

func (s *MemoryStore) Read(_ context.Context, roomID string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return [][]byte{}, nil
	}
	return r.items(), nil
}

func (s *MemoryStore) Clear(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}
