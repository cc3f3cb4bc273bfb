package redis

import (
	"context"
	"encoding/json"
	"time"

	"purchase-token-gateway/internal/domain/ports/adapter"
)

// SessionCache keeps recently resolved checkout sessions so the completion
// path does not re-scan the processor's event feed on every hit.
type SessionCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionCache(client RedisClient, ttl time.Duration) *SessionCache {
	return &SessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *SessionCache) Store(ctx context.Context, ref string, session *adapter.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "stripe_session:"+ref, data, c.ttl)
}

func (c *SessionCache) Get(ctx context.Context, ref string) (*adapter.CheckoutSession, error) {
	data, err := c.client.Get(ctx, "stripe_session:"+ref)
	if err != nil {
		return nil, err
	}

	var session adapter.CheckoutSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *SessionCache) Delete(ctx context.Context, ref string) error {
	return c.client.Del(ctx, "stripe_session:"+ref)
}
