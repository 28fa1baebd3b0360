package web

import (
	"context"
	"sync"
	"time"
)

// ttlStore is a thread-safe in-memory map whose entries expire after ttl
// without access.
type ttlStore[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]ttlEntry[T]
	now   func() time.Time
}

type ttlEntry[T any] struct {
	value    T
	lastSeen time.Time
}

func newTTLStore[T any](ttl time.Duration) *ttlStore[T] {
	return &ttlStore[T]{ttl: ttl, items: make(map[string]ttlEntry[T]), now: time.Now}
}

func (s *ttlStore[T]) put(key string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = ttlEntry[T]{value: v, lastSeen: s.now()}
}

// get returns the entry and renews its lease.
func (s *ttlStore[T]) get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	if s.now().Sub(e.lastSeen) > s.ttl {
		delete(s.items, key)
		var zero T
		return zero, false
	}
	e.lastSeen = s.now()
	s.items[key] = e
	return e.value, true
}

func (s *ttlStore[T]) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// deleteWhere removes every entry for which match returns true.
func (s *ttlStore[T]) deleteWhere(match func(T) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.items {
		if match(e.value) {
			delete(s.items, k)
		}
	}
}

func (s *ttlStore[T]) purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.items {
		if s.now().Sub(e.lastSeen) > s.ttl {
			delete(s.items, k)
			n++
		}
	}
	return n
}

// startPurge starts a background goroutine that evicts expired entries every interval.
func (s *ttlStore[T]) startPurge(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purge()
			}
		}
	}()
}
