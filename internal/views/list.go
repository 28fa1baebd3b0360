// Package views holds the state behind the list screens: which page or search
// result is shown, and the confirmed mutations that refresh it.
package views

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"supply-console/internal/core"
	"supply-console/internal/search"
)

// ErrNotConfirmed is returned when the user declines a destructive action.
var ErrNotConfirmed = errors.New("action not confirmed")

// Confirm asks the user to approve a destructive action described by prompt.
type Confirm func(ctx context.Context, prompt string) (bool, error)

// Source is what a list view reads from and deletes through.
type Source[T any] struct {
	List   func(ctx context.Context, page, size int) (*core.Page[T], error)
	Search func(ctx context.Context, query string) ([]T, error)
	Delete func(ctx context.Context, id int64) error
	ID     func(T) int64
	Label  func(T) string
}

// SourceFrom adapts an EntityService.
func SourceFrom[T core.Entity](svc core.EntityService[T]) Source[T] {
	return Source[T]{
		List:   svc.List,
		Search: svc.Search,
		Delete: svc.Delete,
		ID:     func(v T) int64 { return v.Identity() },
		Label:  func(v T) string { return v.Label() },
	}
}

// State is a snapshot of a list view.
type State[T any] struct {
	Items      []T
	Page       int
	TotalPages int
	Total      int64
	Query      string
	// Searching is true while search results are shown; pagination is hidden.
	Searching bool
	Loading   bool
	// Err is the last load failure, shown as a banner. The items are those
	// of the last successful load.
	Err error
}

// ShowPagination reports whether page controls should be offered.
func (s State[T]) ShowPagination() bool { return !s.Searching && s.TotalPages > 1 }

// ListView keeps the rows of one list screen. Loads are sequenced: a response
// to an older request never overwrites a newer one.
type ListView[T any] struct {
	src  Source[T]
	size int

	mu    sync.Mutex
	seq   uint64
	state State[T]
}

// NewListView returns a view with pageSize rows per page. Call Mount to load.
func NewListView[T any](src Source[T], pageSize int) *ListView[T] {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &ListView[T]{src: src, size: pageSize}
}

// State returns a copy of the current state.
func (v *ListView[T]) State() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Items = append([]T(nil), v.state.Items...)
	return s
}

// Mount loads page 0 of the unfiltered listing.
func (v *ListView[T]) Mount(ctx context.Context) error {
	v.mu.Lock()
	v.state.Query = ""
	v.state.Searching = false
	v.mu.Unlock()
	return v.Load(ctx, 0)
}

// Load shows page of the unfiltered listing.
func (v *ListView[T]) Load(ctx context.Context, page int) error {
	if page < 0 {
		page = 0
	}
	seq := v.begin()
	p, err := v.src.List(ctx, page, v.size)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.seq {
		return nil
	}
	v.state.Loading = false
	if err != nil {
		v.state.Err = err
		return err
	}
	v.state = State[T]{
		Items:      p.Items,
		Page:       p.Number,
		TotalPages: p.TotalPages,
		Total:      p.TotalElements,
	}
	return nil
}

// Next loads the following page, if any.
func (v *ListView[T]) Next(ctx context.Context) error {
	s := v.State()
	if s.Searching || s.Page+1 >= s.TotalPages {
		return nil
	}
	return v.Load(ctx, s.Page+1)
}

// Prev loads the previous page, if any.
func (v *ListView[T]) Prev(ctx context.Context) error {
	s := v.State()
	if s.Searching || s.Page == 0 {
		return nil
	}
	return v.Load(ctx, s.Page-1)
}

// SetQuery applies the search box contents immediately: a query of at least
// search.MinQueryLen runes switches to unpaginated search results, an empty
// query reverts to page 0 of the listing, and a one-rune query changes nothing.
func (v *ListView[T]) SetQuery(ctx context.Context, query string) error {
	q := strings.TrimSpace(query)
	switch n := utf8.RuneCountInString(q); {
	case n == 0:
		return v.Mount(ctx)
	case n < search.MinQueryLen:
		return nil
	}
	seq := v.begin()
	items, err := v.src.Search(ctx, q)
	return v.finishSearch(seq, q, items, err)
}

// Apply installs an outcome from a debounced search.Searcher wired to the
// same source. Stale and skipped outcomes are ignored.
func (v *ListView[T]) Apply(ctx context.Context, o search.Outcome[T]) error {
	if o.Stale || o.Skipped {
		return nil
	}
	if o.Query == "" {
		return v.Mount(ctx)
	}
	seq := v.begin()
	return v.finishSearch(seq, o.Query, o.Items, o.Err)
}

func (v *ListView[T]) finishSearch(seq uint64, q string, items []T, err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.seq {
		return nil
	}
	v.state.Loading = false
	if err != nil {
		v.state.Err = err
		return err
	}
	v.state = State[T]{
		Items:      items,
		TotalPages: 1,
		Total:      int64(len(items)),
		Query:      q,
		Searching:  true,
	}
	return nil
}

// Refresh reloads whatever is currently shown.
func (v *ListView[T]) Refresh(ctx context.Context) error {
	s := v.State()
	if s.Searching {
		return v.SetQuery(ctx, s.Query)
	}
	return v.Load(ctx, s.Page)
}

// Delete asks confirm and, if approved, deletes id and refreshes. A refused
// confirmation returns ErrNotConfirmed without calling the service.
func (v *ListView[T]) Delete(ctx context.Context, id int64, confirm Confirm) error {
	prompt := "delete #" + strconv.FormatInt(id, 10)
	if v.src.Label != nil {
		for _, it := range v.State().Items {
			if v.src.ID != nil && v.src.ID(it) == id {
				prompt = "delete " + v.src.Label(it)
				break
			}
		}
	}
	ok, err := confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfirmed
	}
	if err := v.src.Delete(ctx, id); err != nil {
		return err
	}
	return v.Refresh(ctx)
}

// Find returns the shown row with id.
func (v *ListView[T]) Find(id int64) (T, bool) {
	if v.src.ID != nil {
		for _, it := range v.State().Items {
			if v.src.ID(it) == id {
				return it, true
			}
		}
	}
	var zero T
	return zero, false
}

func (v *ListView[T]) begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	v.state.Loading = true
	v.state.Err = nil
	return v.seq
}
