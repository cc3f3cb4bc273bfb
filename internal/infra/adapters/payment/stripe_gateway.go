// File: internal/infra/adapters/payment/stripe_gateway.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/event"

	"purchase-token-gateway/internal/domain/ports/adapter"
	red "purchase-token-gateway/internal/infra/redis"
)

var _ adapter.CheckoutGateway = (*StripeGateway)(nil)

// lookbackWindow bounds the event scan in FindByReference; completed sessions
// older than this are not discoverable, which is fine given the 12h token
// expiry.
const lookbackWindow = 24 * time.Hour

// StripeGateway implements adapter.CheckoutGateway on Stripe Checkout
// Sessions. Completed sessions are located by scanning the
// checkout.session.completed event feed for the client reference, with an
// optional cache in front to avoid repeating the scan.
type StripeGateway struct {
	cache *red.SessionCache // may be nil
}

func NewStripeGateway(secretKey string, cache *red.SessionCache) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	stripe.Key = secretKey
	return &StripeGateway{cache: cache}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateSession(ctx context.Context, ref string, amount int64, description, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	// Stripe requires a product name; the merchant's description doubles as
	// one when present.
	name := description
	if name == "" {
		name = "Purchase"
	}
	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(name),
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ClientReferenceID:  stripe.String(ref),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String("usd"),
					ProductData: productData,
					UnitAmount:  stripe.Int64(amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	return toCheckoutSession(s), nil
}

// FindByReference scans recent checkout.session.completed events for the
// client reference. Returns (nil, nil) when checkout has not completed yet.
func (g *StripeGateway) FindByReference(ctx context.Context, ref string) (*adapter.CheckoutSession, error) {
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, ref); err == nil {
			return cached, nil
		}
	}

	params := &stripe.EventListParams{
		Types: []*string{stripe.String("checkout.session.completed")},
		CreatedRange: &stripe.RangeQueryParams{
			GreaterThanOrEqual: time.Now().Add(-lookbackWindow).Unix(),
		},
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	iter := event.List(params)
	for iter.Next() {
		ev := iter.Event()
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			continue
		}
		if cs.ClientReferenceID != ref {
			continue
		}
		found := toCheckoutSession(&cs)
		if g.cache != nil {
			_ = g.cache.Store(ctx, ref, found)
		}
		return found, nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list events: %w", err)
	}
	return nil, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *adapter.CheckoutSession {
	out := &adapter.CheckoutSession{ID: s.ID, URL: s.URL}
	if s.Customer != nil {
		out.Customer = s.Customer.ID
	}
	if s.PaymentIntent != nil {
		out.PaymentIntent = s.PaymentIntent.ID
	}
	return out
}
