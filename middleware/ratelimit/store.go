package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store counts hits in fixed windows. Increment starts a new window of the
// given period when none is active and returns the hit count and window end.
type Store interface {
	Increment(ctx context.Context, key string, period time.Duration) (count int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

type MemoryStore struct {
	mu   sync.Mutex
	data map[string]*entry
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type entry struct {
	count     int
	resetTime time.Time
}

func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]*entry),
		now:  time.Now,
		stop: make(chan struct{}),
	}

	go store.cleanup(time.Minute)

	return store
}

func (s *MemoryStore) Increment(ctx context.Context, key string, period time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, exists := s.data[key]; exists && now.Before(e.resetTime) {
		e.count++
		return e.count, e.resetTime, nil
	}

	e := &entry{count: 1, resetTime: now.Add(period)}
	s.data[key] = e
	return e.count, e.resetTime, nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		now := s.now()
		for key, entry := range s.data {
			if !now.Before(entry.resetTime) {
				delete(s.data, key)
			}
		}
		s.mu.Unlock()
	}
}
