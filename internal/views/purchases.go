package views

import (
	"context"
	"fmt"

	"supply-console/internal/core"

	"github.com/sirupsen/logrus"
)

// PurchaseListView is the purchases screen: a ListView whose rows have their
// supplier and product references resolved, plus status changes.
type PurchaseListView struct {
	*ListView[core.Purchase]

	svc      core.PurchaseService
	resolver *core.Resolver
	logger   logrus.FieldLogger
}

// NewPurchaseListView wires a purchases list. resolver may be nil, in which
// case references are shown as "#<id>".
func NewPurchaseListView(svc core.PurchaseService, resolver *core.Resolver, pageSize int, logger logrus.FieldLogger) *PurchaseListView {
	v := &PurchaseListView{svc: svc, resolver: resolver, logger: logger}
	v.ListView = NewListView(Source[core.Purchase]{
		List:   v.list,
		Search: v.search,
		Delete: svc.Delete,
		ID:     func(p core.Purchase) int64 { return p.ID },
		Label:  func(p core.Purchase) string { return fmt.Sprintf("purchase #%d (%s)", p.ID, p.Supplier.Label()) },
	}, pageSize)
	return v
}

func (v *PurchaseListView) list(ctx context.Context, page, size int) (*core.Page[core.Purchase], error) {
	p, err := v.svc.List(ctx, page, size)
	if err != nil {
		return nil, err
	}
	v.resolve(ctx, p.Items)
	return p, nil
}

func (v *PurchaseListView) search(ctx context.Context, q string) ([]core.Purchase, error) {
	items, err := v.svc.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	v.resolve(ctx, items)
	return items, nil
}

// resolve fills in references; failures leave the "#<id>" label in place.
func (v *PurchaseListView) resolve(ctx context.Context, items []core.Purchase) {
	if v.resolver == nil {
		return
	}
	if err := v.resolver.Purchases(ctx, items); err != nil && v.logger != nil {
		v.logger.WithError(err).Warn("some purchase references could not be resolved")
	}
}

// Transitions returns the status changes to offer for the purchase with id.
// Terminal statuses, and rows not on screen, offer none.
func (v *PurchaseListView) Transitions(id int64) []core.Status {
	p, ok := v.Find(id)
	if !ok {
		return nil
	}
	return p.Status.Transitions()
}

// ChangeStatus asks confirm, then sends the transition to the server and
// refreshes the list. Transitions the lifecycle forbids fail with
// *core.TransitionError before anything is sent.
func (v *PurchaseListView) ChangeStatus(ctx context.Context, id int64, to core.Status, confirm Confirm) (*core.Purchase, error) {
	current, ok := v.Find(id)
	if !ok {
		p, err := v.svc.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		current = *p
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, &core.TransitionError{From: current.Status, To: to}
	}

	okay, err := confirm(ctx, fmt.Sprintf("change purchase #%d from %s to %s", id, current.Status, to))
	if err != nil {
		return nil, err
	}
	if !okay {
		return nil, ErrNotConfirmed
	}

	updated, err := v.svc.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}
	// A failed reload is kept in State().Err; the change itself succeeded.
	_ = v.Refresh(ctx)
	return updated, nil
}
