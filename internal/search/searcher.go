// Package search implements debounced, generation-checked lookups for search
// boxes: rapid keystrokes collapse into one request, and results belonging to
// a superseded query are never delivered as current.
package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// MinQueryLen is the shortest trimmed query, in runes, that triggers a search.
const MinQueryLen = 2

// Fetch performs the actual lookup.
type Fetch[T any] func(ctx context.Context, query string) ([]T, error)

// Outcome is delivered once per Type call.
type Outcome[T any] struct {
	Query      string
	Generation uint64
	Items      []T
	Err        error

	// Skipped is set when the query was too short to search; no request was made.
	Skipped bool
	// Stale is set when a newer Type call superseded this one before it completed.
	Stale bool
}

// Searcher debounces queries typed into one search box.
type Searcher[T any] struct {
	delay  time.Duration
	search Fetch[T]
	browse Fetch[T]

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	waiting chan Outcome[T]
	query   string
	closed  bool
}

// New returns a Searcher that waits delay after the last keystroke before
// calling search. browse, when non-nil, is called for an empty query (the
// unfiltered listing); with a nil browse an empty query is Skipped.
func New[T any](delay time.Duration, search, browse Fetch[T]) *Searcher[T] {
	return &Searcher[T]{delay: delay, search: search, browse: browse}
}

// Type registers the current contents of the search box and returns a channel
// that receives exactly one Outcome. A later Type call makes any earlier
// outcome Stale: its timer is stopped, or its in-flight request cancelled.
func (s *Searcher[T]) Type(query string) <-chan Outcome[T] {
	out := make(chan Outcome[T], 1)
	q := strings.TrimSpace(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersedeLocked()
	s.gen++
	gen := s.gen

	if s.closed {
		out <- Outcome[T]{Query: q, Generation: gen, Stale: true}
		return out
	}

	fetch := s.search
	switch n := utf8.RuneCountInString(q); {
	case n == 0 && s.browse != nil:
		fetch = s.browse
	case n < MinQueryLen:
		out <- Outcome[T]{Query: q, Generation: gen, Skipped: true}
		return out
	}

	s.waiting = out
	s.query = q
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen, q, fetch) })
	return out
}

// Generation returns the number of Type calls so far.
func (s *Searcher[T]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Close stops any pending timer and cancels an in-flight request.
func (s *Searcher[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
	s.closed = true
}

func (s *Searcher[T]) fire(gen uint64, q string, fetch Fetch[T]) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.timer = nil
	s.mu.Unlock()

	items, err := fetch(ctx, q)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// supersedeLocked has already delivered a Stale outcome.
		return
	}
	s.cancel = nil
	if s.waiting != nil {
		s.waiting <- Outcome[T]{Query: q, Generation: gen, Items: items, Err: err}
		s.waiting = nil
	}
}

// supersedeLocked stops the current timer or request and tells its waiter
// that the result is stale.
func (s *Searcher[T]) supersedeLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.waiting != nil {
		s.waiting <- Outcome[T]{Query: s.query, Generation: s.gen, Stale: true}
		s.waiting = nil
	}
}
