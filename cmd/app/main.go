package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"supply-console/internal/adapters/cli"
	"supply-console/internal/adapters/repl"
	"supply-console/internal/ai"
	"supply-console/internal/api"
	"supply-console/internal/app"
	"supply-console/internal/config"
	"supply-console/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := api.NewSession(store.NewFile(cfg.CredentialsFile))
	if err := session.Init(ctx); err != nil {
		log.Fatalf("Unable to load saved credentials: %v", err)
	}
	client := api.NewClient(cfg.APIURL, cfg.APITimeout, session, logger)

	var agent ai.AgentService
	if cfg.OpenAIKey != "" {
		agent = ai.NewAgent(cfg.OpenAIKey)
	} else {
		logger.Debug("OPENAI_API_KEY is not set; AI drafting disabled")
	}

	svc := app.NewAppService(client, agent, app.Options{
		PageSize:       cfg.PageSize,
		SearchDebounce: cfg.SearchDebounce,
		PhoneRegion:    cfg.PhoneRegion,
		Language:       cfg.Language,
	}, logger)

	if len(os.Args) > 1 {
		if err := cli.Run(ctx, svc, os.Args[1:], os.Stdin, os.Stdout); err != nil {
			log.Fatalf("%s: %v", os.Args[1], err)
		}
		return
	}
	repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout)
}
