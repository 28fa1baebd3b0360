// seed creates demo suppliers and products through the supply API. Records
// whose tax id or SKU already exists are left alone, so it is safe to re-run.
//
// Usage: CONSOLE_USERNAME=admin CONSOLE_PASSWORD=... go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"supply-console/internal/api"
	"supply-console/internal/app"
	"supply-console/internal/config"
	"supply-console/internal/core"
	"supply-console/internal/store"

	"github.com/joho/godotenv"
)

var suppliers = []core.SupplierDraft{
	{Name: "Papelaria Central Ltda", TaxID: "11222333000181", Email: "vendas@papelariacentral.com.br", Phone: "(11) 3333-4444", City: "São Paulo", State: "SP", ZipCode: "01310100", Active: true},
	{Name: "Embalagens Sul S.A.", TaxID: "11444777000161", Email: "contato@embalagenssul.com.br", City: "Porto Alegre", State: "RS", ZipCode: "90010000", Active: true},
}

var products = []core.ProductDraft{
	{SKU: "BOX-30", Name: "Caixa de papelão 30x30", Unit: "un", Width: "30", Height: "30", Length: "30", Volume: "120", DefaultPrice: "4.90", Active: true},
	{SKU: "TAPE-48", Name: "Fita adesiva 48mm", Unit: "un", Volume: "40", DefaultPrice: "7.50", Active: true},
	{SKU: "BUBBLE-1", Name: "Plástico bolha 1m", Unit: "m", Volume: "8", DefaultPrice: "3.20", Active: true},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := config.NewLogger(cfg)

	username, password := os.Getenv("CONSOLE_USERNAME"), os.Getenv("CONSOLE_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("CONSOLE_USERNAME and CONSOLE_PASSWORD must be set")
	}

	ctx := context.Background()
	client := api.NewClient(cfg.APIURL, cfg.APITimeout, api.NewSession(store.NewMemory()), logger)
	svc := app.NewAppService(client, nil, app.Options{PhoneRegion: cfg.PhoneRegion, Language: cfg.Language}, logger)

	if _, err := svc.Login(ctx, username, password); err != nil {
		log.Fatalf("Failed to log in: %v", err)
	}
	defer func() { _ = svc.Logout(ctx) }()

	log.Println("Restoring suppliers...")
	var preferred int64
	for _, d := range suppliers {
		found, err := svc.SearchSuppliers(ctx, d.Name)
		if err != nil {
			log.Fatalf("Failed to search suppliers: %v", err)
		}
		if s, ok := findSupplier(found.Suppliers, d.TaxID); ok {
			log.Printf("  [SKIP] %s (#%d)", s.Name, s.ID)
			if preferred == 0 {
				preferred = s.ID
			}
			continue
		}
		s, err := svc.SaveSupplier(ctx, d)
		if err != nil {
			log.Fatalf("Failed to create supplier %s: %s", d.Name, svc.Message(err))
		}
		log.Printf("  [CREATE] %s (#%d)", s.Name, s.ID)
		if preferred == 0 {
			preferred = s.ID
		}
	}

	log.Println("Restoring products...")
	for _, d := range products {
		found, err := svc.SearchProducts(ctx, d.SKU)
		if err != nil {
			log.Fatalf("Failed to search products: %v", err)
		}
		if p, ok := findProduct(found.Products, d.SKU); ok {
			log.Printf("  [SKIP] %s (#%d)", p.SKU, p.ID)
			continue
		}
		if preferred != 0 {
			id := preferred
			d.PreferredSupplierID = &id
		}
		p, err := svc.SaveProduct(ctx, d)
		if err != nil {
			log.Fatalf("Failed to create product %s: %s", d.SKU, svc.Message(err))
		}
		log.Printf("  [CREATE] %s (#%d)", p.SKU, p.ID)
	}

	log.Println("Seed data restored successfully.")
}

func findSupplier(list []core.Supplier, taxID string) (core.Supplier, bool) {
	for _, s := range list {
		if s.TaxID == taxID {
			return s, true
		}
	}
	return core.Supplier{}, false
}

func findProduct(list []core.Product, sku string) (core.Product, bool) {
	for _, p := range list {
		if p.SKU == sku {
			return p, true
		}
	}
	return core.Product{}, false
}
