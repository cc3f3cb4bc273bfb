package adapter

import (
	"context"

	"purchase-token-gateway/internal/domain/model"
)

// WebhookNotifier delivers a purchase outcome to the merchant's webhook
// endpoint and returns the raw response body. A single call makes a single
// delivery attempt; retry policy lives with the caller.
type WebhookNotifier interface {
	Send(ctx context.Context, t *model.PurchaseToken, success bool) (string, error)
}
