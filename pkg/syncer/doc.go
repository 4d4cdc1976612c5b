// Package syncer contains the rate-limited synchronization core: the
// per-hashtag Engine and the Scheduler driving it.
//
// Each pass over a hashtag fetches the recent remote timelines of all its
// source servers, diffs the union against the local server's own timeline,
// and imports every status visible remotely but not locally, under four
// independent token buckets:
//
//   - a per-server query budget shared by remote fetches, the local fetch
//     and the import call itself (blocking)
//   - a per-upstream-host import budget (advisory: a denied check skips
//     the item for this pass instead of waiting)
//   - a global import budget (blocking)
//   - a pass-cadence budget consulted between passes (blocking)
//
// Processing is strictly sequential; all limiter and dedup state is owned
// by the scheduler goroutine. Failures of a single item never abort its
// hashtag, and failures of a single hashtag never abort the pass.
package syncer
