// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"purchase-token-gateway/internal/domain"
	"purchase-token-gateway/internal/domain/model"
	"purchase-token-gateway/internal/domain/ports/adapter"
	"purchase-token-gateway/internal/domain/ports/repository"
)

// -----------------------------
// Token repository mock
// -----------------------------

var _ repository.TokenRepository = (*memTokenRepo)(nil)

type memTokenRepo struct {
	mu     sync.Mutex
	seq    int64
	tokens map[int64]*model.PurchaseToken

	saveErr    error
	clearCalls [][]int64
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[int64]*model.PurchaseToken)}
}

func (r *memTokenRepo) Save(ctx context.Context, t *model.PurchaseToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.seq++
	t.ID = r.seq
	cp := *t
	r.tokens[t.ID] = &cp
	return nil
}

func (r *memTokenRepo) FindByID(ctx context.Context, id int64) (*model.PurchaseToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTokenRepo) FindByToken(ctx context.Context, token string) (*model.PurchaseToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == token && !t.IsPurchased && !t.Expired(time.Now()) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTokenRepo) FindByClientFailure(ctx context.Context) ([]*model.PurchaseToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PurchaseToken
	for _, t := range r.tokens {
		if t.IsClientFailure {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTokenRepo) MarkPurchased(ctx context.Context, t *model.PurchaseToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tokens[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.IsPurchased {
		return domain.ErrAlreadyPurchased
	}
	cp := *t
	r.tokens[t.ID] = &cp
	return nil
}

func (r *memTokenRepo) SetClientFailure(ctx context.Context, id int64, failed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.IsClientFailure = failed
	return nil
}

func (r *memTokenRepo) ClearClientFailureBatch(ctx context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearCalls = append(r.clearCalls, append([]int64(nil), ids...))
	for _, id := range ids {
		if t, ok := r.tokens[id]; ok {
			t.IsClientFailure = false
		}
	}
	return nil
}

// -----------------------------
// Checkout gateway mock
// -----------------------------

var _ adapter.CheckoutGateway = (*mockGateway)(nil)

type createCall struct {
	ref        string
	amount     int64
	successURL string
	cancelURL  string
}

type mockGateway struct {
	mu        sync.Mutex
	completed map[string]*adapter.CheckoutSession
	createErr error
	creates   []createCall
}

func newMockGateway() *mockGateway {
	return &mockGateway{completed: make(map[string]*adapter.CheckoutSession)}
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) CreateSession(ctx context.Context, ref string, amount int64, description, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.creates = append(g.creates, createCall{ref: ref, amount: amount, successURL: successURL, cancelURL: cancelURL})
	return &adapter.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.test/pay/cs_test_1"}, nil
}

func (g *mockGateway) FindByReference(ctx context.Context, ref string) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completed[ref], nil
}

// complete registers a finished session for ref, as if the payer paid.
func (g *mockGateway) complete(ref string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed[ref] = &adapter.CheckoutSession{
		ID:            "cs_test_1",
		Customer:      "cus_test_1",
		PaymentIntent: "pi_test_1",
	}
}

// -----------------------------
// Webhook notifier mock
// -----------------------------

var _ adapter.WebhookNotifier = (*mockNotifier)(nil)

type notifyCall struct {
	token   string
	success bool
}

type mockNotifier struct {
	mu     sync.Mutex
	err    error
	errFor map[string]error // per-token override
	calls  []notifyCall
}

func (n *mockNotifier) Send(ctx context.Context, t *model.PurchaseToken, success bool) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{token: t.Token, success: success})
	if err, ok := n.errFor[t.Token]; ok {
		return "", err
	}
	if n.err != nil {
		return "", n.err
	}
	return `{"ok":true}`, nil
}
