package business

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pitabwire/util"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	MaxAttempts int           // Maximum attempts allowed
	Window      time.Duration // Time window for rate limiting
}

// DefaultLoginRateLimitConfig returns the default rate limit config for login attempts
func DefaultLoginRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts: 7,
		Window:      time.Hour,
	}
}

// RateLimitEntry tracks attempts for a single key
type RateLimitEntry struct {
	Attempts  int       `json:"attempts"`
	FirstAt   time.Time `json:"first_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BucketStore persists rate limit buckets. The in-process implementation
// below is the default, a distributed cache can stand in behind the same
// interface.
type BucketStore interface {
	Get(ctx context.Context, key string) (*RateLimitEntry, bool)
	Set(ctx context.Context, key string, entry *RateLimitEntry)
	Delete(ctx context.Context, key string)
	DeleteExpired(ctx context.Context, now time.Time)
	Clear(ctx context.Context)
}

type memoryBucketStore struct {
	mu    sync.RWMutex
	store map[string]*RateLimitEntry
}

// NewMemoryBucketStore returns a BucketStore backed by a process local map.
func NewMemoryBucketStore() BucketStore {
	return &memoryBucketStore{
		store: make(map[string]*RateLimitEntry),
	}
}

func (m *memoryBucketStore) Get(_ context.Context, key string) (*RateLimitEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.store[key]
	return entry, ok
}

func (m *memoryBucketStore) Set(_ context.Context, key string, entry *RateLimitEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = entry
}

func (m *memoryBucketStore) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
}

func (m *memoryBucketStore) DeleteExpired(_ context.Context, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.store {
		if now.After(entry.ExpiresAt) {
			delete(m.store, key)
		}
	}
}

func (m *memoryBucketStore) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]*RateLimitEntry)
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed       bool
	AttemptsUsed  int
	AttemptsLeft  int
	RetryAfter    time.Duration
	RetryAfterSec int
}

// RateLimiter provides fixed window rate limiting. Each Check increments the
// counter for the key and compares against the limit, the counter resets
// once the window expires.
type RateLimiter struct {
	config RateLimitConfig
	store  BucketStore

	// mu serialises the read-modify-write in Check against the store.
	mu  sync.Mutex
	now func() time.Time
}

// NewRateLimiter creates a new rate limiter over the given store.
func NewRateLimiter(config RateLimitConfig, store BucketStore) *RateLimiter {
	return &RateLimiter{
		config: config,
		store:  store,
		now:    time.Now,
	}
}

// Check checks if an action is allowed for the given key and increments the counter
func (rl *RateLimiter) Check(ctx context.Context, key string) RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.store.Get(ctx, key)

	// If entry doesn't exist or has expired, create a new one
	if !exists || now.After(entry.ExpiresAt) {
		rl.store.Set(ctx, key, &RateLimitEntry{
			Attempts:  1,
			FirstAt:   now,
			ExpiresAt: now.Add(rl.config.Window),
		})
		return RateLimitResult{
			Allowed:      true,
			AttemptsUsed: 1,
			AttemptsLeft: rl.config.MaxAttempts - 1,
		}
	}

	// Check if limit exceeded
	if entry.Attempts >= rl.config.MaxAttempts {
		retryAfter := entry.ExpiresAt.Sub(now)
		return RateLimitResult{
			Allowed:       false,
			AttemptsUsed:  entry.Attempts,
			AttemptsLeft:  0,
			RetryAfter:    retryAfter,
			RetryAfterSec: int(retryAfter.Seconds()),
		}
	}

	// Increment counter
	entry.Attempts++
	rl.store.Set(ctx, key, entry)
	return RateLimitResult{
		Allowed:      true,
		AttemptsUsed: entry.Attempts,
		AttemptsLeft: rl.config.MaxAttempts - entry.Attempts,
	}
}

// Peek checks the current state without incrementing the counter
func (rl *RateLimiter) Peek(ctx context.Context, key string) RateLimitResult {
	now := rl.now()
	entry, exists := rl.store.Get(ctx, key)

	if !exists || now.After(entry.ExpiresAt) {
		return RateLimitResult{
			Allowed:      true,
			AttemptsUsed: 0,
			AttemptsLeft: rl.config.MaxAttempts,
		}
	}

	if entry.Attempts >= rl.config.MaxAttempts {
		retryAfter := entry.ExpiresAt.Sub(now)
		return RateLimitResult{
			Allowed:       false,
			AttemptsUsed:  entry.Attempts,
			AttemptsLeft:  0,
			RetryAfter:    retryAfter,
			RetryAfterSec: int(retryAfter.Seconds()),
		}
	}

	return RateLimitResult{
		Allowed:      true,
		AttemptsUsed: entry.Attempts,
		AttemptsLeft: rl.config.MaxAttempts - entry.Attempts,
	}
}

// Reset resets the rate limit for a key (e.g., after successful login)
func (rl *RateLimiter) Reset(ctx context.Context, key string) {
	rl.store.Delete(ctx, key)
}

// ResetAll clears all rate limit entries (useful for testing)
func (rl *RateLimiter) ResetAll(ctx context.Context) {
	rl.store.Clear(ctx)
}

// Sweep removes expired buckets. Called from the periodic maintenance job
// rather than an owned goroutine.
func (rl *RateLimiter) Sweep(ctx context.Context) {
	rl.store.DeleteExpired(ctx, rl.now())
}

// loginRateLimitKey generates a rate limit key for login attempts
func loginRateLimitKey(keyType, value string) string {
	return fmt.Sprintf("login_rl:%s:%s", keyType, value)
}

// checkLoginRateLimit checks rate limits for both IP and email and returns
// the most restrictive result.
func checkLoginRateLimit(ctx context.Context, limiter *RateLimiter, ip, email string) RateLimitResult {
	log := util.Log(ctx)

	ipKey := loginRateLimitKey("ip", ip)
	ipResult := limiter.Check(ctx, ipKey)

	if !ipResult.Allowed {
		log.WithField("ip", ip).
			WithField("attempts", ipResult.AttemptsUsed).
			WithField("retry_after_s", ipResult.RetryAfterSec).
			Warn("login rate limit exceeded for IP")
		return ipResult
	}

	if email != "" {
		emailKey := loginRateLimitKey("email", email)
		emailResult := limiter.Check(ctx, emailKey)

		if !emailResult.Allowed {
			log.WithField("email_prefix", email[:min(3, len(email))]+"***").
				WithField("attempts", emailResult.AttemptsUsed).
				WithField("retry_after_s", emailResult.RetryAfterSec).
				Warn("login rate limit exceeded for email")
			return emailResult
		}

		// Return the more restrictive result
		if emailResult.AttemptsLeft < ipResult.AttemptsLeft {
			return emailResult
		}
	}

	return ipResult
}

// resetLoginRateLimit resets rate limits after a fully completed login.
func resetLoginRateLimit(ctx context.Context, limiter *RateLimiter, ip, email string) {
	limiter.Reset(ctx, loginRateLimitKey("ip", ip))

	if email != "" {
		limiter.Reset(ctx, loginRateLimitKey("email", email))
	}
}
