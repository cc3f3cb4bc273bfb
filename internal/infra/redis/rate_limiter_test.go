package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory RedisClient for tests. Expirations are ignored;
// the limiter carries its own window reset timestamp.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Ping(ctx context.Context) error { return nil }

func (m *memStore) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (m *memStore) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }

func (m *memStore) Expire(ctx context.Context, key string, _ time.Duration) error { return nil }

func (m *memStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) Close() error { return nil }

// brokenStore fails every operation, standing in for a Redis outage.
type brokenStore struct{}

func (brokenStore) Ping(ctx context.Context) error { return errors.New("redis down") }
func (brokenStore) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	return errors.New("redis down")
}
func (brokenStore) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("redis down")
}
func (brokenStore) Incr(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("redis down")
}
func (brokenStore) Expire(ctx context.Context, key string, _ time.Duration) error {
	return errors.New("redis down")
}
func (brokenStore) Del(ctx context.Context, keys ...string) error { return errors.New("redis down") }
func (brokenStore) Close() error                                  { return nil }

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(newMemStore())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		if !rl.Allow(ctx, "api_auth", "merchant-1", 3, time.Minute) {
			t.Fatalf("request %d denied below the limit", i+1)
		}
	}
	if rl.Allow(ctx, "api_auth", "merchant-1", 3, time.Minute) {
		t.Fatal("request over the limit allowed")
	}
	if got := rl.Remaining(ctx, "api_auth", "merchant-1", 3); got != 0 {
		t.Fatalf("Remaining = %d, want 0", got)
	}
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(newMemStore())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	rl.Allow(ctx, "api_token", "merchant-1", 1, time.Minute)
	if rl.Allow(ctx, "api_token", "merchant-1", 1, time.Minute) {
		t.Fatal("second request in the same window allowed")
	}

	// Step past the window boundary; the counter must start fresh.
	rl.now = func() time.Time { return base.Add(61 * time.Second) }
	if !rl.Allow(ctx, "api_token", "merchant-1", 1, time.Minute) {
		t.Fatal("request after window reset denied")
	}
	if got := rl.Remaining(ctx, "api_token", "merchant-1", 1); got != 0 {
		t.Fatalf("Remaining = %d, want 0", got)
	}
}

func TestRateLimiter_BucketsAndClientsIsolated(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(newMemStore())

	if !rl.Allow(ctx, "api_auth", "merchant-1", 1, time.Minute) {
		t.Fatal("first request denied")
	}
	if !rl.Allow(ctx, "api_auth", "merchant-2", 1, time.Minute) {
		t.Fatal("different client throttled by another client's window")
	}
	if !rl.Allow(ctx, "api_token", "merchant-1", 1, time.Minute) {
		t.Fatal("different bucket throttled by another bucket's window")
	}
	if rl.Allow(ctx, "api_auth", "merchant-1", 1, time.Minute) {
		t.Fatal("exhausted window allowed")
	}
}

func TestRateLimiter_FailOpen(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(brokenStore{})

	for i := 0; i < 10; i++ {
		if !rl.Allow(ctx, "api_auth", "merchant-1", 1, time.Minute) {
			t.Fatal("store outage caused a denial; limiter must fail open")
		}
	}
	if got := rl.Remaining(ctx, "api_auth", "merchant-1", 5); got != 5 {
		t.Fatalf("Remaining during outage = %d, want full limit", got)
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(newMemStore())

	rl.Allow(ctx, "api_auth", "merchant-1", 1, time.Minute)
	if rl.Allow(ctx, "api_auth", "merchant-1", 1, time.Minute) {
		t.Fatal("exhausted window allowed")
	}
	rl.Reset(ctx, "api_auth", "merchant-1")
	if !rl.Allow(ctx, "api_auth", "merchant-1", 1, time.Minute) {
		t.Fatal("request after Reset denied")
	}
}

func TestRateLimiter_EmptyClientID(t *testing.T) {
	if got := bucketKey("api_auth", ""); got != "rate_limit:api_auth:unknown" {
		t.Fatalf("bucketKey = %q", got)
	}
}
