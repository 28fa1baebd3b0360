package core

import (
	"context"
	"fmt"
	"net/http"

	"supply-console/internal/api"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Metrics are the dashboard headline figures.
type Metrics struct {
	Suppliers        int64           `json:"fornecedores"`
	Products         int64           `json:"produtos"`
	PendingPurchases int64           `json:"comprasPendentes"`
	StockTotal       decimal.Decimal `json:"estoqueTotal"`
	StockValue       decimal.Decimal `json:"valorEstoque"`
	IncomingValue    decimal.Decimal `json:"valorEntregasFuturas"`

	// Derived is true when the figures were computed client-side because the
	// dashboard endpoint was unavailable.
	Derived bool `json:"-"`
}

// DashboardService reads the dashboard metrics.
type DashboardService interface {
	Metrics(ctx context.Context) (*Metrics, error)
}

type dashboardService struct {
	api       Requester
	suppliers SupplierService
	products  ProductService
	purchases PurchaseService
	pageSize  int
}

// NewDashboardService constructs a DashboardService. When GET /dashboard
// fails with anything but an auth error, the metrics are derived from the
// entity listings instead.
func NewDashboardService(api Requester, suppliers SupplierService, products ProductService, purchases PurchaseService) DashboardService {
	return &dashboardService{api: api, suppliers: suppliers, products: products, purchases: purchases, pageSize: 100}
}

func (s *dashboardService) Metrics(ctx context.Context) (*Metrics, error) {
	var m Metrics
	err := s.api.Do(ctx, http.MethodGet, "/dashboard", nil, nil, &m)
	if err == nil {
		return &m, nil
	}
	if api.IsAuth(err) || ctx.Err() != nil {
		return nil, fmt.Errorf("dashboard metrics: %w", err)
	}
	return s.derive(ctx)
}

func (s *dashboardService) derive(ctx context.Context) (*Metrics, error) {
	m := &Metrics{Derived: true}
	var (
		products  []Product
		purchases []Purchase
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.suppliers.List(gctx, 0, 1)
		if err != nil {
			return err
		}
		m.Suppliers = page.TotalElements
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = collectAll[Product](gctx, s.products, s.pageSize)
		return err
	})
	g.Go(func() error {
		var err error
		purchases, err = collectAll[Purchase](gctx, s.purchases, s.pageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("derive dashboard metrics: %w", err)
	}

	m.Products = int64(len(products))
	inv := BuildInventory(products)
	m.StockTotal = inv.TotalQuantity
	m.StockValue = decimal.Zero
	for _, p := range products {
		if p.Active {
			m.StockValue = m.StockValue.Add(p.DefaultPrice)
		}
	}
	m.IncomingValue = decimal.Zero
	for _, p := range purchases {
		if p.Status == StatusPending {
			m.PendingPurchases++
			m.IncomingValue = m.IncomingValue.Add(p.Total)
		}
	}
	return m, nil
}

// collectAll walks every page of a listing.
func collectAll[T any](ctx context.Context, svc interface {
	List(ctx context.Context, page, size int) (*Page[T], error)
}, size int) ([]T, error) {
	var out []T
	for page := 0; ; page++ {
		p, err := svc.List(ctx, page, size)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Items...)
		if !p.HasNext() || len(p.Items) == 0 {
			return out, nil
		}
	}
}
