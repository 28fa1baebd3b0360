package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"supply-console/internal/adapters/cli"
	"supply-console/internal/api"
	"supply-console/internal/api/apitest"
	"supply-console/internal/app"
	"supply-console/internal/core"
	"supply-console/internal/store"

	"github.com/shopspring/decimal"
)

func setup(t *testing.T) (app.ApplicationService, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, 5*time.Second, api.NewSession(store.NewMemory()), nil)
	svc := app.NewAppService(client, nil, app.Options{Language: "en"}, nil)
	if err := cli.Run(context.Background(), svc, []string{"login", apitest.Username, apitest.Password}, nil, &bytes.Buffer{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	return svc, srv
}

func TestRun_ApplyProposalFromStdin(t *testing.T) {
	svc, srv := setup(t)
	sup := srv.AddSupplier(core.Supplier{Name: "ACME", TaxID: "11222333000181", Active: true})
	prod := srv.AddProduct(core.Product{SKU: "P1", Name: "Paper", DefaultPrice: decimal.NewFromInt(4), Active: true})

	proposal := core.Proposal{
		SupplierID: sup.ID,
		Confidence: 0.9,
		Lines:      []core.ProposalLine{{ProductID: prod.ID, Quantity: 2, UnitPrice: "3,50"}},
	}
	raw, _ := json.Marshal(proposal)

	var out bytes.Buffer
	if err := cli.Run(context.Background(), svc, []string{"apply"}, bytes.NewReader(raw), &out); err != nil {
		t.Fatalf("apply: %v", err)
	}
	var saved core.Purchase
	if err := json.Unmarshal(out.Bytes(), &saved); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if saved.ID == 0 || !saved.Total.Equal(decimal.NewFromInt(7)) {
		t.Errorf("saved = %+v", saved)
	}
}

func TestRun_Errors(t *testing.T) {
	svc, _ := setup(t)
	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"no command", nil, "", "no command"},
		{"unknown", []string{"frobnicate"}, "", "unknown command"},
		{"bad status", []string{"status", "1", "LOST"}, "", "unknown purchase status"},
		{"invalid proposal", []string{"validate"}, `{"supplier_id":0}`, "validation failed"},
		{"bad json", []string{"apply"}, `{`, "invalid JSON"},
		{"search target", []string{"search", "orders", "x"}, "", "cannot search"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.Run(context.Background(), svc, tt.args, strings.NewReader(tt.stdin), &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRun_ListsAsJSON(t *testing.T) {
	svc, srv := setup(t)
	srv.AddSupplier(core.Supplier{Name: "ACME", TaxID: "11222333000181", Active: true})

	var out bytes.Buffer
	if err := cli.Run(context.Background(), svc, []string{"suppliers"}, nil, &out); err != nil {
		t.Fatalf("suppliers: %v", err)
	}
	var res app.SupplierListResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Suppliers) != 1 || res.Suppliers[0].Name != "ACME" {
		t.Errorf("res = %+v", res)
	}
}
