package todo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps todos in process memory in insertion order. State is
// lost on restart; each instance is independent, so tests get a fresh one.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Todo
	index map[string]int
	clock clock
}

func NewMemoryStore() *MemoryStore {
	return newMemoryStore(time.Now)
}

func newMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		index: make(map[string]int),
		clock: clock{now: now},
	}
}

func (s *MemoryStore) Create(ctx context.Context, owner string, input CreateInput) (Todo, error) {
	input, err := normalizeCreate(input)
	if err != nil {
		return Todo{}, err
	}

	now := s.clock.fresh()
	todo := Todo{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		OwnerID:     owner,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[todo.ID] = len(s.items)
	s.items = append(s.items, todo)
	return todo, nil
}

func (s *MemoryStore) List(ctx context.Context, owner string) ([]Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]Todo, 0, len(s.items))
	for _, t := range s.items {
		if visible(t, owner) {
			todos = append(todos, t)
		}
	}
	return todos, nil
}

func (s *MemoryStore) Get(ctx context.Context, owner, id string) (Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.lookup(owner, id)
	if !ok {
		return Todo{}, ErrNotFound
	}
	return s.items[i], nil
}

func (s *MemoryStore) Update(ctx context.Context, owner, id string, input UpdateInput) (Todo, error) {
	input, err := normalizeUpdate(input)
	if err != nil {
		return Todo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(owner, id)
	if !ok {
		return Todo{}, ErrNotFound
	}
	updated := input.apply(s.items[i], s.clock.next(s.items[i].UpdatedAt))
	s.items[i] = updated
	return updated, nil
}

func (s *MemoryStore) Delete(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.lookup(owner, id)
	if !ok {
		return ErrNotFound
	}

	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
	return nil
}

// lookup 调用方需持有锁
func (s *MemoryStore) lookup(owner, id string) (int, bool) {
	i, ok := s.index[id]
	if !ok || !visible(s.items[i], owner) {
		return 0, false
	}
	return i, true
}
