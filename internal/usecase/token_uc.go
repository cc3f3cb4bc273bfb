// File: internal/usecase/token_uc.go
package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"purchase-token-gateway/internal/domain"
	"purchase-token-gateway/internal/domain/model"
	"purchase-token-gateway/internal/domain/ports/adapter"
	"purchase-token-gateway/internal/domain/ports/repository"
	"purchase-token-gateway/internal/infra/metrics"
	"purchase-token-gateway/internal/infra/security"
)

// Compile-time check
var _ TokenUseCase = (*tokenUC)(nil)

// IssueInput carries the merchant's token-issuance request.
type IssueInput struct {
	TransactionID string
	Price         int64
	Description   string
	SuccessURL    string
	CancelURL     string
	FailureURL    string
	WebhookURL    string
}

// VerifyInput carries a merchant's server-to-server verification request.
type VerifyInput struct {
	Token         string
	Code          int64
	TransactionID string
	Price         int64
}

// CompletionResult is what the completion handler acts on. Delivered reports
// whether the merchant webhook was reached; RedirectURL is empty when the
// stored success/cancel URL failed redirect validation.
type CompletionResult struct {
	Token       *model.PurchaseToken
	Delivered   bool
	RedirectURL string
}

type TokenUseCase interface {
	// Issue validates and stores a new purchase token.
	Issue(ctx context.Context, in IssueInput) (*model.PurchaseToken, error)
	// Verify checks a token/code pair for a merchant. The boolean is the only
	// outcome; why a verification failed is never surfaced.
	Verify(ctx context.Context, in VerifyInput) (bool, error)
	// Checkout opens a processor session and returns its hosted payment URL.
	Checkout(ctx context.Context, token string) (string, error)
	// Complete finalizes a checkout: purchase transition, webhook delivery,
	// redirect resolution.
	Complete(ctx context.Context, token string) (*CompletionResult, error)
	// Cancel resolves the validated cancel redirect, "" when blocked.
	Cancel(ctx context.Context, token string) (string, error)
}

type tokenUC struct {
	tokens    repository.TokenRepository
	gateway   adapter.CheckoutGateway
	notifier  adapter.WebhookNotifier
	validator *security.URLValidator
	baseURL   string // public base of this service, for processor callbacks
	log       *zerolog.Logger
}

func NewTokenUseCase(
	tokens repository.TokenRepository,
	gateway adapter.CheckoutGateway,
	notifier adapter.WebhookNotifier,
	validator *security.URLValidator,
	baseURL string,
	logger *zerolog.Logger,
) *tokenUC {
	compLog := logger.With().Str("component", "TokenUC").Logger()
	return &tokenUC{
		tokens:    tokens,
		gateway:   gateway,
		notifier:  notifier,
		validator: validator,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       &compLog,
	}
}

func (u *tokenUC) Issue(ctx context.Context, in IssueInput) (*model.PurchaseToken, error) {
	for field, raw := range map[string]string{
		"successURL": in.SuccessURL,
		"cancelURL":  in.CancelURL,
		"failureURL": in.FailureURL,
	} {
		if !u.validator.IsValidRedirectURL(raw) {
			u.log.Warn().Str("field", field).Str("url", raw).Msg("redirect URL rejected")
			return nil, fmt.Errorf("invalid %s: %w", field, domain.ErrUnsafeURL)
		}
	}
	if !u.validator.IsValidWebhookURL(in.WebhookURL) {
		u.log.Warn().Str("field", "webhookURL").Str("url", in.WebhookURL).Msg("webhook URL rejected")
		return nil, fmt.Errorf("invalid webhookURL: %w", domain.ErrUnsafeURL)
	}

	t, err := model.NewPurchaseToken(in.TransactionID, in.Price, in.Description,
		in.SuccessURL, in.CancelURL, in.FailureURL, in.WebhookURL)
	if err != nil {
		return nil, err
	}
	if err := u.tokens.Save(ctx, t); err != nil {
		return nil, err
	}
	metrics.IncTokenIssued()
	return t, nil
}

func (u *tokenUC) Verify(ctx context.Context, in VerifyInput) (bool, error) {
	t, err := u.tokens.FindByID(ctx, in.Code)
	if err != nil {
		if err == domain.ErrNotFound {
			metrics.IncVerification(false)
			return false, nil
		}
		return false, err
	}

	// Constant-time token compare: a short-circuiting equality check would
	// leak matching prefixes through timing.
	valid := security.SecureCompare(t.Token, in.Token) && t.Price == in.Price
	metrics.IncVerification(valid)
	return valid, nil
}

func (u *tokenUC) Checkout(ctx context.Context, token string) (string, error) {
	t, err := u.tokens.FindByToken(ctx, token)
	if err != nil {
		return "", err
	}

	sess, err := u.gateway.CreateSession(ctx, t.Token, t.Price, t.Description,
		u.baseURL+"/purchase/complete?t="+url.QueryEscape(t.Token),
		u.baseURL+"/purchase/cancel?t="+url.QueryEscape(t.Token))
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (u *tokenUC) Complete(ctx context.Context, token string) (*CompletionResult, error) {
	t, err := u.tokens.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	sess, err := u.gateway.FindByReference(ctx, t.Token)
	if err != nil {
		return nil, fmt.Errorf("find checkout session: %w", err)
	}
	if sess == nil {
		u.log.Error().Int64("token_id", t.ID).Msg("no completed checkout session for token")
		return nil, domain.ErrNotFound
	}

	if err := t.MarkPurchased(true, sess.ID, sess.PaymentIntent, sess.Customer); err != nil {
		return nil, err
	}
	if err := u.tokens.MarkPurchased(ctx, t); err != nil {
		return nil, err
	}
	metrics.IncCheckoutCompleted("success")

	// Delivery failure degrades the payer's response but never fails it; the
	// flag hands the token to the batch retry driver.
	if _, err := u.notifier.Send(ctx, t, true); err != nil {
		u.log.Warn().Err(err).Int64("token_id", t.ID).Msg("webhook delivery failed; flagged for retry")
		metrics.IncWebhookDelivery("failed")
		if merr := t.MarkClientFailure(); merr != nil {
			return nil, merr
		}
		if perr := u.tokens.SetClientFailure(ctx, t.ID, true); perr != nil {
			u.log.Error().Err(perr).Int64("token_id", t.ID).Msg("persist client failure flag")
		}
		return &CompletionResult{Token: t, Delivered: false}, nil
	}
	metrics.IncWebhookDelivery("ok")

	return &CompletionResult{Token: t, Delivered: true, RedirectURL: u.redirectTo(t.SuccessURL, t.Token)}, nil
}

func (u *tokenUC) Cancel(ctx context.Context, token string) (string, error) {
	t, err := u.tokens.FindByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if !u.validator.IsValidRedirectURL(t.CancelURL) {
		u.log.Warn().Str("url", t.CancelURL).Msg("cancel redirect URL blocked")
		return "", nil
	}
	return t.CancelURL, nil
}

// redirectTo re-validates the stored redirect target at use time and appends
// the token for merchant-side verification. Empty result means "render a
// fallback message instead of redirecting".
func (u *tokenUC) redirectTo(raw, token string) string {
	if !u.validator.IsValidRedirectURL(raw) {
		u.log.Warn().Str("url", raw).Msg("success redirect URL blocked")
		return ""
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + "t=" + url.QueryEscape(token)
}
