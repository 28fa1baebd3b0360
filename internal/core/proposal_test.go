package core_test

import (
	"context"
	"testing"

	"supply-console/internal/api"
	"supply-console/internal/core"
)

func TestProposal_NormalizationAndValidation(t *testing.T) {
	tests := []struct {
		name      string
		proposal  core.Proposal
		expectErr bool
	}{
		{
			name: "Happy path",
			proposal: core.Proposal{
				SupplierID: 3, PurchaseDate: "2024-05-01", Confidence: 0.9,
				Lines: []core.ProposalLine{{ProductID: 7, Quantity: 2, UnitPrice: "10,50"}},
			},
		},
		{
			name: "Null strings and default price",
			proposal: core.Proposal{
				SupplierID: 3, PurchaseDate: "null", ExpectedDeliveryDate: "NULL", Confidence: 0.5,
				Lines: []core.ProposalLine{{ProductID: 7, Quantity: 1, UnitPrice: "null"}},
			},
		},
		{
			name:      "No supplier",
			proposal:  core.Proposal{Lines: []core.ProposalLine{{ProductID: 7, Quantity: 1}}},
			expectErr: true,
		},
		{
			name:      "No lines",
			proposal:  core.Proposal{SupplierID: 3},
			expectErr: true,
		},
		{
			name: "Zero quantity",
			proposal: core.Proposal{
				SupplierID: 3, Lines: []core.ProposalLine{{ProductID: 7, Quantity: 0}},
			},
			expectErr: true,
		},
		{
			name: "Negative price",
			proposal: core.Proposal{
				SupplierID: 3, Lines: []core.ProposalLine{{ProductID: 7, Quantity: 1, UnitPrice: "-1"}},
			},
			expectErr: true,
		},
		{
			name: "Delivery before purchase",
			proposal: core.Proposal{
				SupplierID: 3, PurchaseDate: "2024-05-10", ExpectedDeliveryDate: "2024-05-01",
				Lines: []core.ProposalLine{{ProductID: 7, Quantity: 1}},
			},
			expectErr: true,
		},
		{
			name: "Bad date",
			proposal: core.Proposal{
				SupplierID: 3, PurchaseDate: "01/05/2024",
				Lines: []core.ProposalLine{{ProductID: 7, Quantity: 1}},
			},
			expectErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.proposal
			p.Normalize()
			err := p.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestProposal_ApplyTo(t *testing.T) {
	f := &fakeAPI{handler: func(c call) (any, error) {
		switch c.Path {
		case "/suppliers/3":
			return `{"id":3,"name":"ACME"}`, nil
		case "/products/7":
			return `{"id":7,"name":"Bolt","defaultPrice":4}`, nil
		case "/products/8":
			return `{"id":8,"name":"Nut","defaultPrice":0.5}`, nil
		}
		return nil, &api.NotFoundError{Path: c.Path}
	}}
	suppliers, products := core.NewSupplierService(f), core.NewProductService(f)

	p := core.Proposal{
		SupplierID: 3, PurchaseDate: "2024-05-01", Notes: "urgente",
		Lines: []core.ProposalLine{
			{ProductID: 7, Quantity: 2},
			{ProductID: 8, Quantity: 10, UnitPrice: "0.45"},
		},
	}
	c := core.NewComposer(&saverStub{})
	if err := p.ApplyTo(context.Background(), c, suppliers, products); err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}
	if c.SupplierLabel() != "ACME" || len(c.Items()) != 2 {
		t.Fatalf("composer: supplier=%q items=%d", c.SupplierLabel(), len(c.Items()))
	}
	if !c.Total().Equal(dec("12.5")) {
		t.Errorf("total = %s, want 12.5", c.Total())
	}
	if d := c.Draft(); d.Notes != "urgente" || d.PurchaseDate.String() != "2024-05-01" {
		t.Errorf("draft = %+v", d)
	}

	missing := core.Proposal{SupplierID: 3, Lines: []core.ProposalLine{{ProductID: 99, Quantity: 1}}}
	fresh := core.NewComposer(&saverStub{})
	if err := missing.ApplyTo(context.Background(), fresh, suppliers, products); !api.IsNotFound(err) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
	if _, ok := fresh.Supplier(); ok || len(fresh.Items()) != 0 {
		t.Error("composer mutated by failed ApplyTo")
	}
}
