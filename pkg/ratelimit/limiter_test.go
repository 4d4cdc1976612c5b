package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiterQuota(t *testing.T) {
	lim := NewLimiter(Quota{Permits: 3, Period: time.Hour})

	// Test initial capacity
	for i := 0; i < 3; i++ {
		ok, _ := lim.TryAcquire()
		if !ok {
			t.Errorf("Expected permit %d to be available", i+1)
		}
	}

	// Test exhaustion
	ok, wait := lim.TryAcquire()
	if ok {
		t.Error("Expected no more permits to be available")
	}
	if wait <= 0 {
		t.Errorf("Expected a positive wait duration, got %v", wait)
	}
	if wait > 20*time.Minute+time.Second {
		t.Errorf("Expected wait of at most one replenish interval, got %v", wait)
	}
}

func TestTryAcquireDoesNotConsumeOnDenial(t *testing.T) {
	lim := NewLimiter(Quota{Permits: 1, Period: 50 * time.Millisecond})

	if ok, _ := lim.TryAcquire(); !ok {
		t.Fatal("Expected first permit to be available")
	}

	// Repeated denied probes must not push the next permit further out
	_, wait1 := lim.TryAcquire()
	_, wait2 := lim.TryAcquire()
	if wait2 > wait1 {
		t.Errorf("Expected denied probes to not consume quota: wait went %v -> %v", wait1, wait2)
	}

	time.Sleep(wait1 + 10*time.Millisecond)
	if ok, _ := lim.TryAcquire(); !ok {
		t.Error("Expected permit to be available after the reported wait")
	}
}

func TestLimiterWait(t *testing.T) {
	lim := NewLimiter(Quota{Permits: 1, Period: 50 * time.Millisecond})

	if err := lim.Wait(context.Background()); err != nil {
		t.Fatalf("Expected first wait to return immediately, got %v", err)
	}

	start := time.Now()
	if err := lim.Wait(context.Background()); err != nil {
		t.Fatalf("Expected second wait to succeed, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Expected wait to block for roughly the replenish interval, blocked %v", elapsed)
	}
}

func TestLimiterWaitCancellation(t *testing.T) {
	lim := NewLimiter(Quota{Permits: 1, Period: time.Hour})
	lim.TryAcquire() // exhaust

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := lim.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestKeyedLimiterIndependentBuckets(t *testing.T) {
	lim := NewKeyedLimiter(Quota{Permits: 1, Period: time.Hour})

	if ok, _ := lim.TryAcquire("a.example"); !ok {
		t.Error("Expected first permit for a.example")
	}
	if ok, _ := lim.TryAcquire("b.example"); !ok {
		t.Error("Expected first permit for b.example despite a.example being spent")
	}
	if ok, _ := lim.TryAcquire("a.example"); ok {
		t.Error("Expected a.example to be exhausted")
	}

	if lim.Len() != 2 {
		t.Errorf("Expected 2 live buckets, got %d", lim.Len())
	}
}

func TestKeyedLimiterCompact(t *testing.T) {
	lim := NewKeyedLimiter(Quota{Permits: 1, Period: 30 * time.Millisecond})

	lim.TryAcquire("spent.example")
	lim.bucket("untouched.example")

	// The untouched bucket is already full and must be swept immediately
	if dropped := lim.Compact(); dropped != 1 {
		t.Errorf("Expected 1 bucket dropped, got %d", dropped)
	}
	if lim.Len() != 1 {
		t.Errorf("Expected 1 bucket to remain, got %d", lim.Len())
	}

	// Once the spent bucket replenishes it is swept too
	time.Sleep(40 * time.Millisecond)
	if dropped := lim.Compact(); dropped != 1 {
		t.Errorf("Expected replenished bucket to be dropped, got %d", dropped)
	}
	if lim.Len() != 0 {
		t.Errorf("Expected no buckets after full compaction, got %d", lim.Len())
	}
}

func TestCompactedKeyStartsFresh(t *testing.T) {
	lim := NewKeyedLimiter(Quota{Permits: 1, Period: 30 * time.Millisecond})

	lim.TryAcquire("host.example")
	time.Sleep(40 * time.Millisecond)
	lim.Compact()

	// A fresh bucket for the same key starts at full capacity
	if ok, _ := lim.TryAcquire("host.example"); !ok {
		t.Error("Expected recreated bucket to grant a permit")
	}
}
