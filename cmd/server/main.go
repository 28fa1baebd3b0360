package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "supply-console/internal/adapters/web"
	"supply-console/internal/ai"
	"supply-console/internal/api"
	"supply-console/internal/app"
	"supply-console/internal/config"
	"supply-console/internal/db"
	"supply-console/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// sessionRetention is how long unused console sessions keep their API tokens
// in Postgres.
const sessionRetention = "30 days"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without DATABASE_URL, session credentials live in memory and are lost
	// on restart.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		go purgeSessions(ctx, pool, logger)
	} else {
		logger.Warn("DATABASE_URL is not set; console sessions are kept in memory")
	}

	var agent ai.AgentService
	if cfg.OpenAIKey != "" {
		agent = ai.NewAgent(cfg.OpenAIKey)
	} else {
		logger.Warn("OPENAI_API_KEY is not set; AI drafting disabled")
	}
	opts := app.Options{
		PageSize:       cfg.PageSize,
		SearchDebounce: cfg.SearchDebounce,
		PhoneRegion:    cfg.PhoneRegion,
		Language:       cfg.Language,
	}

	factory := func(ctx context.Context, sessionID string) (app.ApplicationService, error) {
		var creds api.CredentialStore = store.NewMemory()
		if pool != nil {
			creds = store.NewPostgres(pool, sessionID)
		}
		session := api.NewSession(creds)
		if err := session.Init(ctx); err != nil {
			return nil, err
		}
		client := api.NewClient(cfg.APIURL, cfg.APITimeout, session, logger.WithField("session", sessionID))
		return app.NewAppService(client, agent, opts, logger.WithField("session", sessionID)), nil
	}

	handler := webAdapter.NewHandler(ctx, factory, webAdapter.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Language:       cfg.Language,
		SecureCookies:  os.Getenv("SECURE_COOKIES") == "true",
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("server starting on :%s (API %s)", cfg.ServerPort, cfg.APIURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}

func purgeSessions(ctx context.Context, pool *pgxpool.Pool, logger logrus.FieldLogger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		n, err := store.PurgeSessions(ctx, pool, sessionRetention)
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Errorf("purge console sessions: %v", err)
		case n > 0:
			logger.Infof("purged %d idle console sessions", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
