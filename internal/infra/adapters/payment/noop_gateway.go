package payment

import (
	"context"
	"fmt"
	"sync"

	"purchase-token-gateway/internal/domain/ports/adapter"
)

var _ adapter.CheckoutGateway = (*NoopCheckoutGateway)(nil)

// NoopCheckoutGateway is a simple in-memory gateway for dev mode and tests.
// CompleteSession simulates the payer finishing checkout.
type NoopCheckoutGateway struct {
	mu        sync.Mutex
	seq       int64
	sessions  map[string]*adapter.CheckoutSession // ref -> session
	completed map[string]bool
}

func NewNoopCheckoutGateway() *NoopCheckoutGateway {
	return &NoopCheckoutGateway{
		sessions:  make(map[string]*adapter.CheckoutSession),
		completed: make(map[string]bool),
	}
}

func (g *NoopCheckoutGateway) Name() string { return "noop" }

func (g *NoopCheckoutGateway) CreateSession(ctx context.Context, ref string, amount int64, description, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	s := &adapter.CheckoutSession{
		ID:            fmt.Sprintf("cs_noop_%d", g.seq),
		URL:           "https://checkout.example.test/pay/" + ref,
		Customer:      fmt.Sprintf("cus_noop_%d", g.seq),
		PaymentIntent: fmt.Sprintf("pi_noop_%d", g.seq),
	}
	g.sessions[ref] = s
	return s, nil
}

func (g *NoopCheckoutGateway) FindByReference(ctx context.Context, ref string) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.completed[ref] {
		return nil, nil
	}
	return g.sessions[ref], nil
}

// CompleteSession marks the session for ref as paid.
func (g *NoopCheckoutGateway) CompleteSession(ref string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[ref]; ok {
		g.completed[ref] = true
	}
}
