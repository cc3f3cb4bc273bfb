// File: internal/usecase/retry_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"purchase-token-gateway/internal/domain/ports/adapter"
	"purchase-token-gateway/internal/domain/ports/repository"
	"purchase-token-gateway/internal/infra/metrics"
)

// Compile-time check
var _ RetryUseCase = (*retryUC)(nil)

type RetryUseCase interface {
	// ProcessClientFailures re-attempts delivery for every token flagged
	// is_client_failure and returns how many tokens were processed. One
	// token's failure never aborts the batch.
	ProcessClientFailures(ctx context.Context) (int, error)
}

type retryUC struct {
	tokens    repository.TokenRepository
	notifier  adapter.WebhookNotifier
	batchSize int
	log       *zerolog.Logger
}

func NewRetryUseCase(tokens repository.TokenRepository, notifier adapter.WebhookNotifier, batchSize int, logger *zerolog.Logger) *retryUC {
	if batchSize <= 0 {
		batchSize = 50
	}
	compLog := logger.With().Str("component", "RetryUC").Logger()
	return &retryUC{tokens: tokens, notifier: notifier, batchSize: batchSize, log: &compLog}
}

func (u *retryUC) ProcessClientFailures(ctx context.Context) (int, error) {
	flagged, err := u.tokens.FindByClientFailure(ctx)
	if err != nil {
		return 0, err
	}

	processed := 0
	cleared := make([]int64, 0, u.batchSize)

	flush := func() {
		if len(cleared) == 0 {
			return
		}
		if err := u.tokens.ClearClientFailureBatch(ctx, cleared); err != nil {
			u.log.Error().Err(err).Ints64("ids", cleared).Msg("clear client failure batch")
		}
		cleared = cleared[:0]
	}

	for _, t := range flagged {
		processed++
		u.log.Info().Int64("token_id", t.ID).Msg("retrying webhook delivery")

		// Retry only applies to successful-purchase notifications.
		if _, err := u.notifier.Send(ctx, t, true); err != nil {
			u.log.Warn().Err(err).Int64("token_id", t.ID).Msg("webhook retry failed")
			metrics.IncWebhookRetry("failed")
			continue
		}
		metrics.IncWebhookRetry("ok")
		t.ClearClientFailure()
		cleared = append(cleared, t.ID)

		// Flush every batchSize records for throughput; each token's update
		// is independently committed so correctness does not depend on it.
		if len(cleared) >= u.batchSize {
			flush()
		}
	}
	flush()

	return processed, nil
}
