package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window request counter backed by the shared Redis
// store, guarding the authentication and token-creation surfaces.
//
// Failure policy is fail-open: a counter-store outage must not take the
// payment flow down, so any store error counts as "allowed".
type RateLimiter struct {
	client RedisClient
	now    func() time.Time
}

// window is the persisted per-bucket state.
type window struct {
	Count int   `json:"count"`
	Reset int64 `json:"reset"` // unix seconds when the window reopens
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

func bucketKey(bucket, clientID string) string {
	if clientID == "" {
		clientID = "unknown"
	}
	return fmt.Sprintf("rate_limit:%s:%s", bucket, clientID)
}

// Allow reports whether one more request fits into the current window for
// bucket+clientID, incrementing the counter when it does.
func (r *RateLimiter) Allow(ctx context.Context, bucket, clientID string, limit int, windowDur time.Duration) bool {
	key := bucketKey(bucket, clientID)
	now := r.now().Unix()

	w, err := r.load(ctx, key)
	if err != nil && err != ErrCacheMiss {
		return true // fail open
	}
	if err == ErrCacheMiss || now > w.Reset {
		w = window{Count: 0, Reset: now + int64(windowDur.Seconds())}
	}
	if w.Count >= limit {
		return false
	}
	w.Count++

	b, _ := json.Marshal(w)
	if err := r.client.Set(ctx, key, string(b), windowDur); err != nil {
		return true // fail open
	}
	return true
}

// Remaining is a non-mutating peek at how many requests are left in the
// current window. Absent or expired windows report the full limit.
func (r *RateLimiter) Remaining(ctx context.Context, bucket, clientID string, limit int) int {
	w, err := r.load(ctx, bucketKey(bucket, clientID))
	if err != nil {
		return limit
	}
	if r.now().Unix() > w.Reset {
		return limit
	}
	left := limit - w.Count
	if left < 0 {
		return 0
	}
	return left
}

// Reset drops the window for bucket+clientID. Best effort.
func (r *RateLimiter) Reset(ctx context.Context, bucket, clientID string) {
	_ = r.client.Del(ctx, bucketKey(bucket, clientID))
}

func (r *RateLimiter) load(ctx context.Context, key string) (window, error) {
	var w window
	raw, err := r.client.Get(ctx, key)
	if err != nil {
		return w, err
	}
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return w, err
	}
	return w, nil
}
