package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"purchase-token-gateway/internal/domain"
	"purchase-token-gateway/internal/domain/model"
	"purchase-token-gateway/internal/infra/security"

	"github.com/rs/zerolog"
)

const (
	sendTimeout  = 5 * time.Second
	maxRedirects = 3
	userAgent    = "purchase-token-gateway/1.0"
)

// DeliveryError is the typed failure the completion handler and retry driver
// pattern-match on; anything else escaping Send is a programming error.
type DeliveryError struct {
	Cause error
}

func (e *DeliveryError) Error() string { return "webhook delivery failed: " + e.Cause.Error() }
func (e *DeliveryError) Unwrap() error { return domain.ErrDeliveryFailed }

// payload is the fixed notification body merchants receive.
type payload struct {
	Success       bool   `json:"success"`
	Token         string `json:"token"`
	Code          int64  `json:"code"`
	Price         int64  `json:"price"`
	TransactionID string `json:"transactionID"`
}

// Sender posts purchase outcomes to merchant webhook endpoints.
type Sender struct {
	validator *security.URLValidator
	client    *http.Client
	log       *zerolog.Logger
}

func NewSender(validator *security.URLValidator, logger *zerolog.Logger) *Sender {
	compLog := logger.With().Str("component", "WebhookSender").Logger()
	return &Sender{
		validator: validator,
		client: &http.Client{
			Timeout: sendTimeout,
			// A compromised endpoint must not redirect the delivery onto an
			// internal address after the initial SSRF check passed: cap hops
			// and require HTTPS throughout.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				if req.URL.Scheme != "https" {
					return fmt.Errorf("redirect to non-https url blocked")
				}
				return nil
			},
		},
		log: &compLog,
	}
}

// Send notifies the merchant of the purchase outcome and returns the raw
// response body. The stored webhook URL is re-validated on every send; record
// tampering between issuance and delivery must not bypass the SSRF check.
func (s *Sender) Send(ctx context.Context, t *model.PurchaseToken, success bool) (string, error) {
	if !s.validator.IsValidWebhookURL(t.WebhookURL) {
		s.log.Error().
			Str("url", t.WebhookURL).
			Int64("token_id", t.ID).
			Msg("SSRF attempt blocked - invalid webhook URL")
		return "", &DeliveryError{Cause: domain.ErrUnsafeURL}
	}

	body, err := json.Marshal(payload{
		Success:       success,
		Token:         t.Token,
		Code:          t.ID,
		Price:         t.Price,
		TransactionID: t.TransactionID,
	})
	if err != nil {
		return "", &DeliveryError{Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return "", &DeliveryError{Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &DeliveryError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &DeliveryError{Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DeliveryError{Cause: fmt.Errorf("endpoint returned status %d", resp.StatusCode)}
	}
	return string(respBody), nil
}
