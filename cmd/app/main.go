// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"purchase-token-gateway/internal/config"
	"purchase-token-gateway/internal/domain/ports/adapter"
	payAdapters "purchase-token-gateway/internal/infra/adapters/payment"
	"purchase-token-gateway/internal/infra/api"
	pg "purchase-token-gateway/internal/infra/db/postgres"
	"purchase-token-gateway/internal/infra/logging"
	"purchase-token-gateway/internal/infra/metrics"
	red "purchase-token-gateway/internal/infra/redis"
	"purchase-token-gateway/internal/infra/sched"
	"purchase-token-gateway/internal/infra/security"
	"purchase-token-gateway/internal/infra/webhook"
	"purchase-token-gateway/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop checkout gateway)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	sessionCache := red.NewSessionCache(redisClient, cfg.Redis.TTL)

	// ---- Security ----
	validator := security.NewURLValidator(cfg.Security.AllowedRedirectHosts, cfg.Security.AllowedWebhookHosts)
	if len(cfg.Security.AllowedRedirectHosts) == 0 {
		logger.Warn().Msg("security.allowed_redirect_hosts is empty; all redirect URLs will be rejected")
	}

	// ---- Repositories ----
	tokenRepo := pg.NewPostgresTokenRepo(pool)
	merchantRepo := pg.NewPostgresMerchantRepo(pool)
	verifier := security.NewCredentialVerifier(merchantRepo)

	// ---- Checkout gateway ----
	var gateway adapter.CheckoutGateway
	if cfg.Runtime.Dev && cfg.Stripe.SecretKey == "" {
		gateway = payAdapters.NewNoopCheckoutGateway()
		logger.Info().Msg("checkout gateway: noop")
	} else {
		gateway, err = payAdapters.NewStripeGateway(cfg.Stripe.SecretKey, sessionCache)
		if err != nil {
			log.Fatalf("stripe gateway: %v", err)
		}
		logger.Info().Msg("checkout gateway: stripe")
	}

	// ---- Use cases ----
	sender := webhook.NewSender(validator, logger)
	tokenUC := usecase.NewTokenUseCase(tokenRepo, gateway, sender, validator, cfg.Server.PublicBaseURL, logger)
	retryUC := usecase.NewRetryUseCase(tokenRepo, sender, cfg.Retry.BatchSize, logger)

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- HTTP server ----
	srv := api.NewServer(tokenUC, verifier, rateLimiter, cfg.RateLimit, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Webhook retry worker ----
	worker := sched.NewRetryWorker(cfg.Retry.Interval, retryUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = server.Shutdown(context.Background())
}
