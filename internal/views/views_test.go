package views_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"supply-console/internal/core"
	"supply-console/internal/search"
	"supply-console/internal/views"
)

type fakeSuppliers struct {
	mu       sync.Mutex
	rows     []core.Supplier
	searches []string
	deleted  []int64
	failList bool
}

func (f *fakeSuppliers) List(_ context.Context, page, size int) (*core.Page[core.Supplier], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errors.New("boom")
	}
	start := page * size
	if start > len(f.rows) {
		start = len(f.rows)
	}
	end := start + size
	if end > len(f.rows) {
		end = len(f.rows)
	}
	pages := (len(f.rows) + size - 1) / size
	return &core.Page[core.Supplier]{Items: append([]core.Supplier(nil), f.rows[start:end]...), Number: page, TotalPages: pages, TotalElements: int64(len(f.rows)), Size: size}, nil
}

func (f *fakeSuppliers) Get(_ context.Context, id int64) (*core.Supplier, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeSuppliers) Create(_ context.Context, s core.Supplier) (*core.Supplier, error) {
	return &s, nil
}

func (f *fakeSuppliers) Update(_ context.Context, _ int64, s core.Supplier) (*core.Supplier, error) {
	return &s, nil
}

func (f *fakeSuppliers) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	for i, r := range f.rows {
		if r.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSuppliers) Search(_ context.Context, q string) ([]core.Supplier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, q)
	var out []core.Supplier
	for _, r := range f.rows {
		if strings.Contains(strings.ToLower(r.Name), strings.ToLower(q)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func seed(n int) *fakeSuppliers {
	f := &fakeSuppliers{}
	for i := 1; i <= n; i++ {
		f.rows = append(f.rows, core.Supplier{ID: int64(i), Name: fmt.Sprintf("Fornecedor %02d", i)})
	}
	return f
}

func yes(context.Context, string) (bool, error) { return true, nil }
func no(context.Context, string) (bool, error)  { return false, nil }

func TestListView_MountAndPaging(t *testing.T) {
	f := seed(25)
	v := views.NewListView(views.SourceFrom[core.Supplier](f), 10)
	ctx := context.Background()

	if err := v.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	s := v.State()
	if s.Page != 0 || len(s.Items) != 10 || s.TotalPages != 3 || !s.ShowPagination() {
		t.Fatalf("state = %+v", s)
	}
	_ = v.Next(ctx)
	_ = v.Next(ctx)
	_ = v.Next(ctx)
	if s := v.State(); s.Page != 2 || len(s.Items) != 5 {
		t.Errorf("after Next x3: page=%d items=%d", s.Page, len(s.Items))
	}
	_ = v.Prev(ctx)
	if s := v.State(); s.Page != 1 {
		t.Errorf("after Prev: page=%d", s.Page)
	}
}

func TestListView_SearchHidesPagination(t *testing.T) {
	f := seed(25)
	v := views.NewListView(views.SourceFrom[core.Supplier](f), 10)
	ctx := context.Background()
	_ = v.Mount(ctx)

	if err := v.SetQuery(ctx, "0"); err != nil {
		t.Fatal(err)
	}
	if len(f.searches) != 0 || v.State().Searching {
		t.Error("one-character query triggered a search")
	}

	if err := v.SetQuery(ctx, " 1 "); err != nil {
		t.Fatal(err)
	}
	if err := v.SetQuery(ctx, "or 1"); err != nil {
		t.Fatal(err)
	}
	s := v.State()
	if !s.Searching || s.ShowPagination() || s.Query != "or 1" || len(s.Items) != 10 {
		t.Errorf("search state = %+v", s)
	}

	_ = v.Next(ctx)
	if v.State().Query != "or 1" {
		t.Error("Next while searching left search mode")
	}

	if err := v.SetQuery(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if s := v.State(); s.Searching || s.Page != 0 || len(s.Items) != 10 {
		t.Errorf("after clear = %+v", s)
	}
}

func TestListView_ErrorKeepsRows(t *testing.T) {
	f := seed(3)
	v := views.NewListView(views.SourceFrom[core.Supplier](f), 10)
	ctx := context.Background()
	_ = v.Mount(ctx)

	f.failList = true
	if err := v.Refresh(ctx); err == nil {
		t.Fatal("expected error")
	}
	s := v.State()
	if len(s.Items) != 3 || s.Err == nil || s.Loading {
		t.Errorf("state after failure = %+v", s)
	}
}

func TestListView_DeleteNeedsConfirmation(t *testing.T) {
	f := seed(3)
	v := views.NewListView(views.SourceFrom[core.Supplier](f), 10)
	ctx := context.Background()
	_ = v.Mount(ctx)

	var prompt string
	capture := func(_ context.Context, p string) (bool, error) {
		prompt = p
		return false, nil
	}
	if err := v.Delete(ctx, 2, capture); !errors.Is(err, views.ErrNotConfirmed) {
		t.Errorf("err = %v, want ErrNotConfirmed", err)
	}
	if len(f.deleted) != 0 {
		t.Error("deleted without confirmation")
	}
	if !strings.Contains(prompt, "Fornecedor 02") {
		t.Errorf("prompt = %q", prompt)
	}

	if err := v.Delete(ctx, 2, yes); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(f.deleted) != 1 || len(v.State().Items) != 2 {
		t.Errorf("deleted=%v rows=%d", f.deleted, len(v.State().Items))
	}
}

func TestListView_ApplyIgnoresStale(t *testing.T) {
	f := seed(3)
	v := views.NewListView(views.SourceFrom[core.Supplier](f), 10)
	ctx := context.Background()
	_ = v.Mount(ctx)

	_ = v.Apply(ctx, search.Outcome[core.Supplier]{Query: "xx", Stale: true})
	if v.State().Searching {
		t.Error("stale outcome applied")
	}
	_ = v.Apply(ctx, search.Outcome[core.Supplier]{Query: "01", Items: f.rows[:1]})
	if s := v.State(); !s.Searching || len(s.Items) != 1 {
		t.Errorf("state = %+v", s)
	}
}

type fakePurchases struct {
	rows    []core.Purchase
	patched []core.Status
}

func (f *fakePurchases) List(context.Context, int, int) (*core.Page[core.Purchase], error) {
	return &core.Page[core.Purchase]{Items: append([]core.Purchase(nil), f.rows...), TotalPages: 1}, nil
}
func (f *fakePurchases) Get(_ context.Context, id int64) (*core.Purchase, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, errors.New("not found")
}
func (f *fakePurchases) Create(_ context.Context, p core.Purchase) (*core.Purchase, error) {
	return &p, nil
}
func (f *fakePurchases) Update(_ context.Context, _ int64, p core.Purchase) (*core.Purchase, error) {
	return &p, nil
}
func (f *fakePurchases) Delete(context.Context, int64) error { return nil }
func (f *fakePurchases) Search(context.Context, string) ([]core.Purchase, error) {
	return nil, nil
}
func (f *fakePurchases) UpdateStatus(_ context.Context, id int64, s core.Status) (*core.Purchase, error) {
	f.patched = append(f.patched, s)
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = s
			return &f.rows[i], nil
		}
	}
	return nil, errors.New("not found")
}
func (f *fakePurchases) BySupplier(context.Context, int64) ([]core.Purchase, error) { return nil, nil }
func (f *fakePurchases) ByDateRange(context.Context, core.Date, core.Date) ([]core.Purchase, error) {
	return nil, nil
}

func TestPurchaseListView_StatusChanges(t *testing.T) {
	f := &fakePurchases{rows: []core.Purchase{
		{ID: 1, Supplier: core.UnresolvedSupplier(3), Status: core.StatusPending},
		{ID: 2, Supplier: core.UnresolvedSupplier(3), Status: core.StatusDelivered},
	}}
	v := views.NewPurchaseListView(f, nil, 10, nil)
	ctx := context.Background()
	if err := v.Mount(ctx); err != nil {
		t.Fatal(err)
	}

	if got := v.Transitions(2); len(got) != 0 {
		t.Errorf("delivered purchase offers %v", got)
	}
	if got := v.Transitions(1); len(got) != 2 {
		t.Errorf("pending purchase offers %v", got)
	}

	_, err := v.ChangeStatus(ctx, 2, core.StatusPending, yes)
	var te *core.TransitionError
	if !errors.As(err, &te) {
		t.Errorf("err = %v, want TransitionError", err)
	}

	if _, err := v.ChangeStatus(ctx, 1, core.StatusCanceled, no); !errors.Is(err, views.ErrNotConfirmed) {
		t.Errorf("err = %v, want ErrNotConfirmed", err)
	}
	if len(f.patched) != 0 {
		t.Fatalf("PATCH sent: %v", f.patched)
	}

	updated, err := v.ChangeStatus(ctx, 1, core.StatusCanceled, yes)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if updated.Status != core.StatusCanceled || len(v.Transitions(1)) != 0 {
		t.Errorf("after cancel: status=%s transitions=%v", updated.Status, v.Transitions(1))
	}
}
