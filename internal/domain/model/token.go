package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"purchase-token-gateway/internal/domain"
)

const (
	// MinPrice is the minimum charge in currency minor units (Stripe floor).
	MinPrice = 50
	// MaxPrice is the maximum charge in currency minor units.
	MaxPrice = 1_000_000

	// ExpirationWindow is how long a token stays usable for checkout.
	ExpirationWindow = 12 * time.Hour

	maxTransactionIDLen = 32
	maxDescriptionLen   = 255
)

// PurchaseToken represents one purchase intent. The random Token string is the
// only value the payer's browser ever sees; the numeric ID is the "code"
// merchants exchange over the authenticated API.
type PurchaseToken struct {
	ID            int64  // assigned by storage on first save
	Token         string // 16 random bytes, hex-encoded; never regenerated
	TransactionID string
	Price         int64 // currency minor units
	Description   string

	SuccessURL string
	CancelURL  string
	FailureURL string
	WebhookURL string

	IsPurchased     bool
	IsSuccess       *bool
	IsClientFailure bool

	StripeID            *string
	StripePaymentIntent *string
	StripeCustomer      *string

	DateCreated time.Time
}

// NewPurchaseToken builds a fresh token with a crypto-random secret.
// URL safety is the caller's responsibility; field shape and price bounds are
// enforced here.
func NewPurchaseToken(transactionID string, price int64, description, successURL, cancelURL, failureURL, webhookURL string) (*PurchaseToken, error) {
	if transactionID == "" || len(transactionID) > maxTransactionIDLen {
		return nil, fmt.Errorf("%w: transactionID must be 1..%d chars", domain.ErrInvalidArgument, maxTransactionIDLen)
	}
	if price < MinPrice || price > MaxPrice {
		return nil, fmt.Errorf("%w: price must be between %d and %d cents", domain.ErrInvalidArgument, MinPrice, MaxPrice)
	}
	if len(description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description exceeds %d chars", domain.ErrInvalidArgument, maxDescriptionLen)
	}
	if successURL == "" || cancelURL == "" || failureURL == "" || webhookURL == "" {
		return nil, fmt.Errorf("%w: all redirect and webhook URLs are required", domain.ErrInvalidArgument)
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &PurchaseToken{
		Token:         hex.EncodeToString(buf),
		TransactionID: transactionID,
		Price:         price,
		Description:   description,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		FailureURL:    failureURL,
		WebhookURL:    webhookURL,
		DateCreated:   time.Now(),
	}, nil
}

// Expired reports whether the checkout window has passed.
func (t *PurchaseToken) Expired(now time.Time) bool {
	return now.Sub(t.DateCreated) > ExpirationWindow
}

// MarkPurchased records checkout completion. The transition is one-way: a
// purchased token rejects any further completion attempt.
func (t *PurchaseToken) MarkPurchased(success bool, stripeID, paymentIntent, customer string) error {
	if t.IsPurchased {
		return domain.ErrAlreadyPurchased
	}
	t.IsPurchased = true
	t.IsSuccess = &success
	if stripeID != "" {
		t.StripeID = &stripeID
	}
	if paymentIntent != "" {
		t.StripePaymentIntent = &paymentIntent
	}
	if customer != "" {
		t.StripeCustomer = &customer
	}
	return nil
}

// MarkClientFailure flags the token for webhook retry. Only a purchased token
// can carry the flag.
func (t *PurchaseToken) MarkClientFailure() error {
	if !t.IsPurchased {
		return domain.ErrNotPurchased
	}
	t.IsClientFailure = true
	return nil
}

// ClearClientFailure records a successful retry delivery.
func (t *PurchaseToken) ClearClientFailure() {
	t.IsClientFailure = false
}
