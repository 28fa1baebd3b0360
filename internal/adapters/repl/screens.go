package repl

import (
	"context"
	"io"

	"supply-console/internal/search"
	"supply-console/internal/views"
)

// screen is the list the /next, /prev, /find and /delete commands act on.
type screen interface {
	load(ctx context.Context, page int) error
	next(ctx context.Context) error
	prev(ctx context.Context) error
	find(ctx context.Context, query string) error
	remove(ctx context.Context, id int64, confirm views.Confirm) error
	show(w io.Writer)
	close()
}

// listScreen shows a ListView. /find goes through the screen's debounced
// searcher, whose outcome the view installs.
type listScreen[T any] struct {
	view     *views.ListView[T]
	searcher *search.Searcher[T]
	print    func(io.Writer, views.State[T])
}

func (s *listScreen[T]) load(ctx context.Context, page int) error {
	if page == 0 {
		return s.view.Mount(ctx)
	}
	return s.view.Load(ctx, page)
}

func (s *listScreen[T]) next(ctx context.Context) error { return s.view.Next(ctx) }

func (s *listScreen[T]) prev(ctx context.Context) error { return s.view.Prev(ctx) }

func (s *listScreen[T]) find(ctx context.Context, query string) error {
	if s.searcher == nil {
		return s.view.SetQuery(ctx, query)
	}
	select {
	case o := <-s.searcher.Type(query):
		return s.view.Apply(ctx, o)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *listScreen[T]) remove(ctx context.Context, id int64, confirm views.Confirm) error {
	return s.view.Delete(ctx, id, confirm)
}

func (s *listScreen[T]) show(w io.Writer) { s.print(w, s.view.State()) }

func (s *listScreen[T]) close() {
	if s.searcher != nil {
		s.searcher.Close()
	}
}
