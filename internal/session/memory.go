package session

import (
	"context"
	"sync"
)

// MemoryStore — хранилище в памяти процесса. Живёт до завершения процесса.
type MemoryStore struct {
	mu sync.RWMutex
	c  Credentials
}

// NewMemoryStore создаёт хранилище, опционально с начальной тройкой.
func NewMemoryStore(initial ...Credentials) *MemoryStore {
	s := &MemoryStore{}
	if len(initial) > 0 {
		s.c = initial[0].normalized()
	}

	return s
}

func (s *MemoryStore) Get(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.c, nil
}

func (s *MemoryStore) Set(ctx context.Context, c Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.c = c.normalized()
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Update(ctx context.Context, fn func(c *Credentials) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.c
	if err := fn(&next); err != nil {
		return err
	}

	s.c = next.normalized()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.c = Credentials{}
	s.mu.Unlock()

	return nil
}
