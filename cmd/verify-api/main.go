// verify-api logs in to the supply API and reads one page of every listing
// plus the dashboard, reporting what it finds.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"supply-console/internal/api"
	"supply-console/internal/app"
	"supply-console/internal/config"
	"supply-console/internal/store"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

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
	svc := app.NewAppService(client, nil, app.Options{PageSize: cfg.PageSize, Language: cfg.Language}, logger)

	who, err := svc.Login(ctx, username, password)
	if err != nil {
		log.Fatalf("[LOGIN] %v", err)
	}
	defer func() { _ = svc.Logout(ctx) }()
	fmt.Printf("[LOGIN] %s (%s), token expires %s\n", who.Username, who.Role, who.ExpiresAt.Format("2006-01-02 15:04"))

	var suppliers, products, purchases int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := svc.ListSuppliers(gctx, 0)
		if err != nil {
			return fmt.Errorf("suppliers: %w", err)
		}
		suppliers = res.Total
		return nil
	})
	g.Go(func() error {
		res, err := svc.ListProducts(gctx, 0)
		if err != nil {
			return fmt.Errorf("products: %w", err)
		}
		products = res.Total
		return nil
	})
	g.Go(func() error {
		res, err := svc.ListPurchases(gctx, 0)
		if err != nil {
			return fmt.Errorf("purchases: %w", err)
		}
		purchases = res.Total
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("[LIST] %v", err)
	}
	fmt.Printf("[LIST] suppliers=%d products=%d purchases=%d\n", suppliers, products, purchases)

	m, err := svc.Dashboard(ctx)
	if err != nil {
		log.Fatalf("[DASHBOARD] %v", err)
	}
	source := "endpoint"
	if m.Derived {
		source = "derived from listings"
	}
	fmt.Printf("[DASHBOARD] (%s) pending=%d stock=%s value=%s incoming=%s\n",
		source, m.PendingPurchases, m.StockTotal, m.StockValue.StringFixed(2), m.IncomingValue.StringFixed(2))
}
