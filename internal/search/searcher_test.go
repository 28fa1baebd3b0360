package search_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"supply-console/internal/search"
)

type recorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *recorder) fetch(ctx context.Context, q string) ([]string, error) {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	r.mu.Unlock()
	return []string{"result:" + q}, nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func receive[T any](t *testing.T, ch <-chan search.Outcome[T]) search.Outcome[T] {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return search.Outcome[T]{}
	}
}

func TestSearcher_ShortQuerySkipped(t *testing.T) {
	rec := &recorder{}
	s := search.New[string](10*time.Millisecond, rec.fetch, nil)
	defer s.Close()

	for _, q := range []string{"a", " b ", "é", ""} {
		o := receive(t, s.Type(q))
		if !o.Skipped {
			t.Errorf("Type(%q) not skipped: %+v", q, o)
		}
	}
	time.Sleep(30 * time.Millisecond)
	if got := rec.seen(); len(got) != 0 {
		t.Errorf("fetch called for short queries: %v", got)
	}
}

func TestSearcher_SearchesAfterDelay(t *testing.T) {
	rec := &recorder{}
	s := search.New[string](20*time.Millisecond, rec.fetch, nil)
	defer s.Close()

	start := time.Now()
	o := receive(t, s.Type("ac"))
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("fetched after %s, before the debounce window", elapsed)
	}
	if o.Stale || o.Skipped || o.Err != nil || len(o.Items) != 1 || o.Items[0] != "result:ac" {
		t.Errorf("outcome = %+v", o)
	}
}

func TestSearcher_CoalescesKeystrokes(t *testing.T) {
	rec := &recorder{}
	s := search.New[string](30*time.Millisecond, rec.fetch, nil)
	defer s.Close()

	first := s.Type("ac")
	second := s.Type("acm")
	third := s.Type("acme")

	if o := receive(t, first); !o.Stale {
		t.Errorf("first outcome = %+v, want stale", o)
	}
	if o := receive(t, second); !o.Stale {
		t.Errorf("second outcome = %+v, want stale", o)
	}
	o := receive(t, third)
	if o.Stale || o.Query != "acme" || o.Generation != 3 {
		t.Errorf("third outcome = %+v", o)
	}
	if got := rec.seen(); len(got) != 1 || got[0] != "acme" {
		t.Errorf("fetches = %v, want only acme", got)
	}
}

func TestSearcher_CancelsInFlightRequest(t *testing.T) {
	started := make(chan struct{})
	var cancelled sync.WaitGroup
	cancelled.Add(1)
	slow := func(ctx context.Context, q string) ([]string, error) {
		if q == "slow" {
			close(started)
			<-ctx.Done()
			cancelled.Done()
			return nil, ctx.Err()
		}
		return []string{q}, nil
	}
	s := search.New[string](5*time.Millisecond, slow, nil)
	defer s.Close()

	old := s.Type("slow")
	<-started
	fresh := s.Type("fast")

	if o := receive(t, old); !o.Stale {
		t.Errorf("old outcome = %+v, want stale", o)
	}
	cancelled.Wait()
	if o := receive(t, fresh); o.Stale || len(o.Items) != 1 || o.Items[0] != "fast" {
		t.Errorf("fresh outcome = %+v", o)
	}
}

func TestSearcher_EmptyQueryBrowses(t *testing.T) {
	rec := &recorder{}
	browse := func(ctx context.Context, q string) ([]string, error) { return []string{"all"}, nil }
	s := search.New[string](5*time.Millisecond, rec.fetch, browse)
	defer s.Close()

	o := receive(t, s.Type("   "))
	if o.Skipped || len(o.Items) != 1 || o.Items[0] != "all" {
		t.Errorf("outcome = %+v", o)
	}
	if len(rec.seen()) != 0 {
		t.Error("search called for empty query")
	}
}

func TestSearcher_Close(t *testing.T) {
	rec := &recorder{}
	s := search.New[string](50*time.Millisecond, rec.fetch, nil)
	pending := s.Type("acme")
	s.Close()
	if o := receive(t, pending); !o.Stale {
		t.Errorf("outcome after Close = %+v, want stale", o)
	}
	if o := receive(t, s.Type("acme")); !o.Stale {
		t.Errorf("Type after Close = %+v, want stale", o)
	}
	time.Sleep(70 * time.Millisecond)
	if len(rec.seen()) != 0 {
		t.Error("fetch ran after Close")
	}
}
