package business

import (
	"context"
	"sync"
	"time"
)

// BackoffConfig holds configuration for the consecutive failure cooldown.
// The delay grows as Base * 2^(failures-1) and never exceeds Max.
type BackoffConfig struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultLoginBackoffConfig returns the default backoff config for login failures
func DefaultLoginBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Base: time.Second,
		Max:  15 * time.Minute,
	}
}

// BackoffResult contains the result of a backoff check
type BackoffResult struct {
	Allowed    bool
	Failures   int
	RetryAfter time.Duration
}

type backoffEntry struct {
	failures      int
	nextAllowedAt time.Time
}

// BackoffCounter tracks consecutive authentication failures per identity.
// Unlike the window limiter it bounds consecutive failures regardless of how
// slowly an attacker spreads them out: only a verified success resets it.
type BackoffCounter struct {
	config BackoffConfig

	mu    sync.Mutex
	store map[string]*backoffEntry
	now   func() time.Time
}

// NewBackoffCounter creates a new backoff counter with the given config
func NewBackoffCounter(config BackoffConfig) *BackoffCounter {
	return &BackoffCounter{
		config: config,
		store:  make(map[string]*backoffEntry),
		now:    time.Now,
	}
}

// Check reports whether the key is currently allowed to attempt.
func (bc *BackoffCounter) Check(_ context.Context, key string) BackoffResult {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	entry, exists := bc.store[key]
	if !exists {
		return BackoffResult{Allowed: true}
	}

	now := bc.now()
	if now.Before(entry.nextAllowedAt) {
		return BackoffResult{
			Allowed:    false,
			Failures:   entry.failures,
			RetryAfter: entry.nextAllowedAt.Sub(now),
		}
	}

	return BackoffResult{Allowed: true, Failures: entry.failures}
}

// RecordFailure increments the consecutive failure count and extends the
// cooldown for the key.
func (bc *BackoffCounter) RecordFailure(_ context.Context, key string) BackoffResult {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	entry, exists := bc.store[key]
	if !exists {
		entry = &backoffEntry{}
		bc.store[key] = entry
	}

	entry.failures++
	delay := bc.delayFor(entry.failures)
	entry.nextAllowedAt = bc.now().Add(delay)

	return BackoffResult{
		Allowed:    false,
		Failures:   entry.failures,
		RetryAfter: delay,
	}
}

// Clear resets the failure count for the key. Called only after a verified
// success for that identity.
func (bc *BackoffCounter) Clear(_ context.Context, key string) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	delete(bc.store, key)
}

// Sweep drops entries whose cooldown lapsed a full Max ago. The retention
// margin matters: a lapsed cooldown only means the key may try again, the
// failure count behind it clears on a verified success alone. Dropping an
// entry the moment its cooldown passes would let a sweep forgive the count
// for an attacker who simply waits.
func (bc *BackoffCounter) Sweep(_ context.Context) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	now := bc.now()
	for key, entry := range bc.store {
		if now.After(entry.nextAllowedAt.Add(bc.config.Max)) {
			delete(bc.store, key)
		}
	}
}

func (bc *BackoffCounter) delayFor(failures int) time.Duration {
	delay := bc.config.Base
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= bc.config.Max {
			return bc.config.Max
		}
	}
	if delay > bc.config.Max {
		return bc.config.Max
	}
	return delay
}
