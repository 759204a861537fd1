package portal

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER - Token Bucket implementation
// ══════════════════════════════════════════════════════════════════════════════

// ErrRateLimitTimeout is returned when no token becomes available within the
// configured wait timeout.
var ErrRateLimitTimeout = errors.New("portal: rate limit wait timeout")

// RateLimiterConfig contains configuration for the rate limiter.
type RateLimiterConfig struct {
	// RequestsPerSecond is the maximum sustained request rate.
	RequestsPerSecond float64

	// BurstSize is the maximum number of requests in a burst.
	BurstSize int

	// MinInterval is the minimum time between requests, even with tokens
	// available.
	MinInterval time.Duration

	// WaitTimeout is the maximum time to wait for a token.
	WaitTimeout time.Duration
}

// DefaultRateLimiterConfig returns conservative defaults. The portal is an
// unofficial API surface; conservative pacing keeps the account from being
// flagged.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 2.0,
		BurstSize:         5,
		MinInterval:       200 * time.Millisecond,
		WaitTimeout:       30 * time.Second,
	}
}

// RateLimiter implements the Token Bucket algorithm to pace portal requests.
type RateLimiter struct {
	mu sync.Mutex

	maxTokens   float64
	refillRate  float64
	tokens      float64
	lastRefill  time.Time
	minInterval time.Duration
	lastRequest time.Time
	waitTimeout time.Duration
}

// NewRateLimiter creates a RateLimiter with the given configuration.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 2.0
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	now := time.Now()
	return &RateLimiter{
		maxTokens:   float64(config.BurstSize),
		refillRate:  config.RequestsPerSecond,
		tokens:      float64(config.BurstSize),
		lastRefill:  now,
		minInterval: config.MinInterval,
		lastRequest: now.Add(-config.MinInterval),
		waitTimeout: config.WaitTimeout,
	}
}

// Wait blocks until a request may be made, the context is cancelled, or the
// wait timeout elapses.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	deadline := time.Now().Add(rl.waitTimeout)

	for {
		wait := rl.reserve()
		if wait <= 0 {
			return nil
		}
		if time.Now().Add(wait).After(deadline) {
			return ErrRateLimitTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// reserve takes a token if one is available and returns zero, or returns how
// long the caller should wait before trying again.
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Refill the bucket.
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	// Enforce the minimum spacing between requests.
	if since := now.Sub(rl.lastRequest); since < rl.minInterval {
		return rl.minInterval - since
	}

	if rl.tokens < 1 {
		deficit := 1 - rl.tokens
		return time.Duration(deficit / rl.refillRate * float64(time.Second))
	}

	rl.tokens--
	rl.lastRequest = now
	return 0
}
