package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Quota defines a replenishment budget of Permits per Period.
type Quota struct {
	Permits int
	Period  time.Duration
}

// PerMinute returns a quota of n permits per minute
func PerMinute(n int) Quota {
	return Quota{Permits: n, Period: time.Minute}
}

// PerHour returns a quota of n permits per hour
func PerHour(n int) Quota {
	return Quota{Permits: n, Period: time.Hour}
}

// newBucket builds a token bucket that starts full and replenishes one
// permit every Period/Permits.
func (q Quota) newBucket() *rate.Limiter {
	return rate.NewLimiter(rate.Every(q.Period/time.Duration(q.Permits)), q.Permits)
}

// Limiter is a direct token-bucket rate limiter with a single bucket.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter creates a direct limiter for the given quota
func NewLimiter(q Quota) *Limiter {
	return &Limiter{bucket: q.newBucket()}
}

// TryAcquire attempts to take a permit without blocking. On denial it
// reports how long the caller must wait until the next permit becomes
// available; a denied call consumes nothing.
func (l *Limiter) TryAcquire() (bool, time.Duration) {
	return tryReserve(l.bucket)
}

// Wait blocks until a permit is granted, sleeping exactly the durations
// reported by TryAcquire. It returns early if the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return waitLoop(ctx, l.TryAcquire)
}

// KeyedLimiter maintains one independent token bucket per key. Buckets are
// created lazily on first use; Compact bounds the bucket map over time.
type KeyedLimiter struct {
	mu      sync.Mutex
	quota   Quota
	buckets map[string]*rate.Limiter
}

// NewKeyedLimiter creates a keyed limiter applying the quota per key
func NewKeyedLimiter(q Quota) *KeyedLimiter {
	return &KeyedLimiter{
		quota:   q,
		buckets: make(map[string]*rate.Limiter),
	}
}

// TryAcquire attempts to take a permit from the key's bucket without
// blocking; semantics match Limiter.TryAcquire.
func (k *KeyedLimiter) TryAcquire(key string) (bool, time.Duration) {
	return tryReserve(k.bucket(key))
}

// Wait blocks until the key's bucket grants a permit or ctx is cancelled
func (k *KeyedLimiter) Wait(ctx context.Context, key string) error {
	return waitLoop(ctx, func() (bool, time.Duration) {
		return k.TryAcquire(key)
	})
}

// Compact removes buckets that have replenished back to full capacity and
// returns how many were dropped. Keys are derived from externally
// controlled hostnames, so without this sweep the map grows without bound
// over a long run.
func (k *KeyedLimiter) Compact() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	dropped := 0
	for key, bucket := range k.buckets {
		if bucket.Tokens() >= float64(k.quota.Permits) {
			delete(k.buckets, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live buckets
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

func (k *KeyedLimiter) bucket(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	bucket, ok := k.buckets[key]
	if !ok {
		bucket = k.quota.newBucket()
		k.buckets[key] = bucket
	}
	return bucket
}

// tryReserve probes a bucket for a permit. The reservation is cancelled on
// denial so the probe itself never spends quota.
func tryReserve(bucket *rate.Limiter) (bool, time.Duration) {
	r := bucket.Reserve()
	if !r.OK() {
		return false, rate.InfDuration
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return false, delay
	}
	return true, 0
}

// waitLoop is the sleep-retry loop shared by both limiter flavors. The
// reported wait duration is the only thing slept on.
func waitLoop(ctx context.Context, try func() (bool, time.Duration)) error {
	for {
		ok, wait := try()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
