// Package ratelimit provides the token-bucket rate limiters that gate every
// remote interaction of the synchronizer.
//
// Two flavors are offered on top of golang.org/x/time/rate:
//
// Direct:
//   - A single implicit bucket, e.g. the global import budget or the
//     pass-cadence budget.
//
// Keyed:
//   - One independent bucket per string key, created lazily, e.g. the
//     per-server query budget or the per-upstream-host import budget.
//     Compact() sweeps fully replenished buckets so the key space stays
//     bounded over an unbounded run.
//
// Interface:
//
// Both flavors expose the same two operations:
//   - TryAcquire - non-blocking; on denial reports the exact wait until the
//     next permit, without consuming quota
//   - Wait - sleep-retry loop built from TryAcquire, cancellable via context
//
// Usage:
//
//	// 20 imports per hour
//	imports := ratelimit.NewLimiter(ratelimit.PerHour(20))
//	if err := imports.Wait(ctx); err != nil {
//	    return err // context cancelled
//	}
//
//	// 1 query per minute, per server
//	queries := ratelimit.NewKeyedLimiter(ratelimit.PerMinute(1))
//	if ok, wait := queries.TryAcquire("mastodon.example"); !ok {
//	    // denied; next permit in `wait`
//	}
package ratelimit
