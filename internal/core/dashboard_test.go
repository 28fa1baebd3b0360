package core_test

import (
	"context"
	"testing"

	"supply-console/internal/api"
	"supply-console/internal/core"
)

func TestDashboard_UsesEndpoint(t *testing.T) {
	f := &fakeAPI{handler: func(c call) (any, error) {
		return `{"fornecedores":4,"produtos":10,"comprasPendentes":2,"estoqueTotal":0,"valorEstoque":150.5,"valorEntregasFuturas":80}`, nil
	}}
	svc := core.NewDashboardService(f, core.NewSupplierService(f), core.NewProductService(f), core.NewPurchaseService(f))
	m, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if m.Derived || m.Suppliers != 4 || m.PendingPurchases != 2 || !m.StockValue.Equal(dec("150.5")) {
		t.Errorf("metrics = %+v", m)
	}
}

func TestDashboard_FallsBackToListings(t *testing.T) {
	f := &fakeAPI{handler: func(c call) (any, error) {
		switch c.Path {
		case "/dashboard":
			return nil, &api.ServerError{Status: 500}
		case "/suppliers":
			return `{"content":[{"id":1}],"totalElements":3,"totalPages":3,"number":0,"size":1}`, nil
		case "/products":
			return `[
				{"id":1,"name":"A","volume":10,"defaultPrice":2,"active":true},
				{"id":2,"name":"B","volume":5,"defaultPrice":1,"active":false}
			]`, nil
		case "/purchases":
			return `[
				{"id":1,"supplier":1,"status":"PENDING","items":[],"total":30},
				{"id":2,"supplier":1,"status":"DELIVERED","items":[],"total":99},
				{"id":3,"supplier":1,"status":"PENDING","items":[],"total":5}
			]`, nil
		}
		return nil, &api.NotFoundError{Path: c.Path}
	}}
	svc := core.NewDashboardService(f, core.NewSupplierService(f), core.NewProductService(f), core.NewPurchaseService(f))
	m, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if !m.Derived {
		t.Error("expected derived metrics")
	}
	if m.Suppliers != 3 || m.Products != 2 || m.PendingPurchases != 2 {
		t.Errorf("counts = %+v", m)
	}
	if !m.IncomingValue.Equal(dec("35")) || !m.StockValue.Equal(dec("2")) || !m.StockTotal.Equal(dec("10")) {
		t.Errorf("values = incoming %s stock %s total %s", m.IncomingValue, m.StockValue, m.StockTotal)
	}
}

func TestDashboard_AuthErrorNotMasked(t *testing.T) {
	f := &fakeAPI{handler: func(c call) (any, error) { return nil, &api.AuthError{} }}
	svc := core.NewDashboardService(f, core.NewSupplierService(f), core.NewProductService(f), core.NewPurchaseService(f))
	if _, err := svc.Metrics(context.Background()); !api.IsAuth(err) {
		t.Errorf("err = %v, want AuthError", err)
	}
	if n := len(f.Calls()); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}
