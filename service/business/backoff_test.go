package business

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffUnknownKeyAllowed(t *testing.T) {
	ctx := context.Background()
	counter := NewBackoffCounter(DefaultLoginBackoffConfig())

	result := counter.Check(ctx, "nobody")
	assert.True(t, result.Allowed)
	assert.Equal(t, 0, result.Failures)
}

func TestBackoffDelayDoubles(t *testing.T) {
	ctx := context.Background()
	counter := NewBackoffCounter(BackoffConfig{Base: time.Second, Max: time.Minute})

	expected := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}
	for i, want := range expected {
		result := counter.RecordFailure(ctx, "key")
		assert.Equal(t, i+1, result.Failures)
		assert.Equal(t, want, result.RetryAfter)
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	ctx := context.Background()
	counter := NewBackoffCounter(BackoffConfig{Base: time.Second, Max: 4 * time.Second})

	var last BackoffResult
	for i := 0; i < 10; i++ {
		last = counter.RecordFailure(ctx, "key")
	}
	assert.Equal(t, 4*time.Second, last.RetryAfter)
	assert.Equal(t, 10, last.Failures)
}

func TestBackoffBlocksUntilCooldownLapses(t *testing.T) {
	ctx := context.Background()
	counter := NewBackoffCounter(BackoffConfig{Base: time.Minute, Max: time.Hour})

	base := time.Now()
	counter.now = func() time.Time { return base }
	counter.RecordFailure(ctx, "key")

	blocked := counter.Check(ctx, "key")
	assert.False(t, blocked.Allowed)
	assert.Equal(t, time.Minute, blocked.RetryAfter)

	// The count survives the lapse, only the block lifts. Another failure
	// picks up where it left off.
	counter.now = func() time.Time { return base.Add(2 * time.Minute) }
	allowed := counter.Check(ctx, "key")
	assert.True(t, allowed.Allowed)
	assert.Equal(t, 1, allowed.Failures)

	next := counter.RecordFailure(ctx, "key")
	assert.Equal(t, 2, next.Failures)
	assert.Equal(t, 2*time.Minute, next.RetryAfter)
}

func TestBackoffClear(t *testing.T) {
	ctx := context.Background()
	counter := NewBackoffCounter(BackoffConfig{Base: time.Minute, Max: time.Hour})

	counter.RecordFailure(ctx, "key")
	counter.Clear(ctx, "key")

	result := counter.Check(ctx, "key")
	assert.True(t, result.Allowed)
	assert.Equal(t, 0, result.Failures)
}

func TestBackoffSweep(t *testing.T) {
	ctx := context.Background()
	counter := NewBackoffCounter(BackoffConfig{Base: time.Minute, Max: time.Hour})

	base := time.Now()
	counter.now = func() time.Time { return base }
	counter.RecordFailure(ctx, "stale")

	counter.now = func() time.Time { return base.Add(time.Hour) }
	counter.RecordFailure(ctx, "fresh")

	// The stale cooldown lapsed at base+1m but its retention runs another
	// Max beyond that, so this sweep keeps both entries.
	counter.Sweep(ctx)
	assert.Equal(t, 1, counter.Check(ctx, "stale").Failures)
	assert.Equal(t, 1, counter.Check(ctx, "fresh").Failures)

	// Past base+1m+Max the stale entry goes, the fresh one stays.
	counter.now = func() time.Time { return base.Add(time.Minute + time.Hour + time.Second) }
	counter.Sweep(ctx)
	assert.Equal(t, 0, counter.Check(ctx, "stale").Failures)
	assert.Equal(t, 1, counter.Check(ctx, "fresh").Failures)
}

func TestBackoffSweepKeepsFailureCountAfterCooldown(t *testing.T) {
	ctx := context.Background()
	counter := NewBackoffCounter(BackoffConfig{Base: time.Second, Max: 15 * time.Minute})

	base := time.Now()
	counter.now = func() time.Time { return base }

	var last BackoffResult
	for i := 0; i < 8; i++ {
		last = counter.RecordFailure(ctx, "key")
	}
	assert.Equal(t, 128*time.Second, last.RetryAfter)

	// Cooldown waited out, then the maintenance sweep runs. No verified
	// success happened, so the consecutive count must survive both and the
	// next failure keeps escalating instead of restarting at the base.
	counter.now = func() time.Time { return base.Add(3 * time.Minute) }
	counter.Sweep(ctx)

	next := counter.RecordFailure(ctx, "key")
	assert.Equal(t, 9, next.Failures)
	assert.Equal(t, 256*time.Second, next.RetryAfter)
}
