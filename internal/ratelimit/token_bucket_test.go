package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnlimitedAlwaysAllows(t *testing.T) {
	b := Unlimited()
	for i := 0; i < 1000; i++ {
		require.True(t, b.Allow())
	}
}

func TestBucketExhaustsThenRefills(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := start
	b := New(2, time.Second, 1)
	b.now = func() time.Time { return clock }
	b.lastRefill = clock

	require.True(t, b.Allow())
	require.True(t, b.Allow())
	require.False(t, b.Allow(), "capacity exhausted")

	clock = clock.Add(time.Second)
	require.True(t, b.Allow(), "one interval should refill one token")
	require.False(t, b.Allow())
}

func TestWaitReturnsImmediatelyWhenUnlimited(t *testing.T) {
	b := Unlimited()
	b.Wait() // must not block
}

func TestRefillCapsAtCapacity(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := start
	b := New(2, time.Second, 5)
	b.now = func() time.Time { return clock }
	b.lastRefill = clock
	b.remaining = 0

	clock = clock.Add(10 * time.Second)
	require.True(t, b.Allow())
	require.Equal(t, 1, b.remaining)
}
