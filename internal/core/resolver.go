package core

import (
	"context"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

// Resolver turns unresolved supplier and product references into full
// records. Lookups issued close together are batched. Each call is one
// resolution pass: its ids are fetched at most once, and nothing, including
// failures, carries over to the next pass.
type Resolver struct {
	suppliers *dataloader.Loader[int64, *Supplier]
	products  *dataloader.Loader[int64, *Product]
}

// NewResolver constructs a Resolver reading through the given services.
func NewResolver(suppliers SupplierService, products ProductService) *Resolver {
	sr := &entityReader[Supplier]{svc: suppliers}
	pr := &entityReader[Product]{svc: products}
	return &Resolver{
		suppliers: dataloader.NewBatchedLoader(sr.load, dataloader.WithWait[int64, *Supplier](time.Millisecond)),
		products:  dataloader.NewBatchedLoader(pr.load, dataloader.WithWait[int64, *Product](time.Millisecond)),
	}
}

type entityReader[T any] struct {
	svc EntityService[T]
}

func (r *entityReader[T]) load(ctx context.Context, ids []int64) []*dataloader.Result[*T] {
	results := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		v, err := r.svc.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return handleError[*T](len(ids), ctx.Err())
			}
			results = append(results, &dataloader.Result[*T]{Error: err})
			continue
		}
		results = append(results, &dataloader.Result[*T]{Data: v})
	}
	return results
}

func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// Supplier returns ref resolved. Already resolved and empty references are
// returned as they are.
func (r *Resolver) Supplier(ctx context.Context, ref SupplierRef) (SupplierRef, error) {
	if ref.IsResolved() || ref.IsZero() {
		return ref, nil
	}
	r.suppliers.Clear(ctx, ref.ID())
	s, err := r.suppliers.Load(ctx, ref.ID())()
	if err != nil {
		return ref, fmt.Errorf("resolve supplier %d: %w", ref.ID(), err)
	}
	return Resolved(*s), nil
}

// Product returns ref resolved.
func (r *Resolver) Product(ctx context.Context, ref ProductRef) (ProductRef, error) {
	if ref.IsResolved() || ref.IsZero() {
		return ref, nil
	}
	r.products.Clear(ctx, ref.ID())
	p, err := r.products.Load(ctx, ref.ID())()
	if err != nil {
		return ref, fmt.Errorf("resolve product %d: %w", ref.ID(), err)
	}
	return Resolved(*p), nil
}

// Purchases resolves the supplier and every item product of each purchase in
// place. All loads are queued before any is awaited so they share batches.
// References that fail to resolve stay unresolved; the first error is returned.
func (r *Resolver) Purchases(ctx context.Context, purchases []Purchase) error {
	type pending struct {
		apply func(any)
		thunk func() (any, error)
	}
	var queue []pending
	r.Forget()

	for i := range purchases {
		p := &purchases[i]
		if !p.Supplier.IsResolved() && !p.Supplier.IsZero() {
			th := r.suppliers.Load(ctx, p.Supplier.ID())
			queue = append(queue, pending{
				thunk: func() (any, error) {
					v, err := th()
					return v, err
				},
				apply: func(v any) { p.Supplier = Resolved(*v.(*Supplier)) },
			})
		}
		for j := range p.Items {
			li := &p.Items[j]
			if li.Product.IsResolved() || li.Product.IsZero() {
				continue
			}
			th := r.products.Load(ctx, li.Product.ID())
			queue = append(queue, pending{
				thunk: func() (any, error) {
					v, err := th()
					return v, err
				},
				apply: func(v any) { li.Product = Resolved(*v.(*Product)) },
			})
		}
	}

	var firstErr error
	for _, q := range queue {
		v, err := q.thunk()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		q.apply(v)
	}
	if firstErr != nil {
		return fmt.Errorf("resolve purchases: %w", firstErr)
	}
	return nil
}

// Forget drops cached records so the next lookup refetches them.
func (r *Resolver) Forget() {
	r.suppliers.ClearAll()
	r.products.ClearAll()
}
