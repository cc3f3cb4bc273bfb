package repository

import (
	"context"

	"purchase-token-gateway/internal/domain/model"
)

// -----------------------------
// Purchase tokens
// -----------------------------

type TokenRepository interface {
	// Save inserts the token and assigns its numeric ID.
	Save(ctx context.Context, t *model.PurchaseToken) error
	// FindByID loads by numeric code regardless of purchase or expiry state.
	FindByID(ctx context.Context, id int64) (*model.PurchaseToken, error)
	// FindByToken loads by secret token string, but only while the token is
	// still usable for checkout: unpurchased and inside the expiration window.
	// Expired or consumed tokens surface as domain.ErrNotFound.
	FindByToken(ctx context.Context, token string) (*model.PurchaseToken, error)
	// FindByClientFailure lists tokens flagged for webhook retry.
	FindByClientFailure(ctx context.Context) ([]*model.PurchaseToken, error)
	// MarkPurchased applies the completion transition with a check-then-set
	// guard; returns domain.ErrAlreadyPurchased when the row was already
	// consumed by a concurrent completion.
	MarkPurchased(ctx context.Context, t *model.PurchaseToken) error
	// SetClientFailure persists the retry flag for one token.
	SetClientFailure(ctx context.Context, id int64, failed bool) error
	// ClearClientFailureBatch clears the retry flag for many tokens at once.
	ClearClientFailureBatch(ctx context.Context, ids []int64) error
}

type MerchantRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Merchant, error)
}
