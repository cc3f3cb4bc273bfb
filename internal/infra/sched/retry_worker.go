package sched

import (
	"context"
	"time"

	"purchase-token-gateway/internal/usecase"

	"github.com/rs/zerolog"
)

// RetryWorker periodically re-drives webhook deliveries for tokens flagged
// with a client failure. It covers deployments without an external scheduler;
// cmd/retry is the one-shot equivalent for cron-driven setups.
type RetryWorker struct {
	interval time.Duration
	retryUC  usecase.RetryUseCase
	log      *zerolog.Logger
}

func NewRetryWorker(interval time.Duration, retryUC usecase.RetryUseCase, logger *zerolog.Logger) *RetryWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	compLog := logger.With().Str("component", "RetryWorker").Logger()
	return &RetryWorker{
		interval: interval,
		retryUC:  retryUC,
		log:      &compLog,
	}
}

func (w *RetryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting webhook retry worker")
	// Run once on startup, then on every tick
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping webhook retry worker")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *RetryWorker) runCheck(ctx context.Context) {
	processed, err := w.retryUC.ProcessClientFailures(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("webhook retry pass failed")
	}
	if processed > 0 {
		w.log.Info().Int("count", processed).Msg("failed webhooks processed")
	}
}
