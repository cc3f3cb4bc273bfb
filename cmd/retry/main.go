// File: cmd/retry/main.go
// One-shot batch driver that re-attempts failed webhook notifications.
// Intended to run under an external scheduler (cron, systemd timer).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"purchase-token-gateway/internal/config"
	pg "purchase-token-gateway/internal/infra/db/postgres"
	"purchase-token-gateway/internal/infra/logging"
	"purchase-token-gateway/internal/infra/security"
	"purchase-token-gateway/internal/infra/webhook"
	"purchase-token-gateway/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, false)

	ctx := context.Background()
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	validator := security.NewURLValidator(cfg.Security.AllowedRedirectHosts, cfg.Security.AllowedWebhookHosts)
	sender := webhook.NewSender(validator, logger)
	tokenRepo := pg.NewPostgresTokenRepo(pool)
	retryUC := usecase.NewRetryUseCase(tokenRepo, sender, cfg.Retry.BatchSize, logger)

	processed, err := retryUC.ProcessClientFailures(ctx)
	if err != nil {
		log.Fatalf("process client failures: %v", err)
	}
	fmt.Printf("Processed %d failed webhooks.\n", processed)
}
