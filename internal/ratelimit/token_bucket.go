// Package ratelimit throttles how often compaction may seal a new
// output SST, using a simple in-memory token bucket. There is no
// write-ahead log to persist it across restarts in, so unlike the
// teacher's version this bucket just starts full on every process
// start.
package ratelimit

import "time"

// TokenBucket holds at most capacity tokens, one consumed per allowed
// action, and adds refillAmount tokens for every refillInterval
// elapsed.
type TokenBucket struct {
	capacity       int
	refillInterval time.Duration
	refillAmount   int

	remaining int
	lastRefill time.Time
	now        func() time.Time
}

// Unlimited returns a bucket that always allows the action, used as the
// default so compaction stays deterministic unless an operator opts
// into throttling via config.
func Unlimited() *TokenBucket {
	return New(0, 0, 0)
}

// New returns a token bucket starting at full capacity. A capacity of 0
// disables throttling entirely: Allow always returns true.
func New(capacity int, refillInterval time.Duration, refillAmount int) *TokenBucket {
	return &TokenBucket{
		capacity:       capacity,
		refillInterval: refillInterval,
		refillAmount:   refillAmount,
		remaining:      capacity,
		lastRefill:     time.Now(),
		now:            time.Now,
	}
}

// Allow reports whether the caller may proceed, consuming a token if
// so. It refills first based on elapsed time.
func (b *TokenBucket) Allow() bool {
	if b.capacity <= 0 {
		return true
	}

	b.refill()
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// Wait blocks until a token is available, consuming it before
// returning. An unlimited bucket returns immediately.
func (b *TokenBucket) Wait() {
	for !b.Allow() {
		time.Sleep(b.refillInterval)
	}
}

func (b *TokenBucket) refill() {
	if b.refillInterval <= 0 {
		return
	}
	elapsed := b.now().Sub(b.lastRefill)
	intervals := int(elapsed / b.refillInterval)
	if intervals <= 0 {
		return
	}
	b.remaining += intervals * b.refillAmount
	if b.remaining > b.capacity {
		b.remaining = b.capacity
	}
	b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * b.refillInterval)
}
