package syncer

import (
	"tagmirror/pkg/config"
	"tagmirror/pkg/ratelimit"
)

// Limiters bundles the four rate budgets governing a sync run. One
// instance is owned by the Scheduler and shared by reference with the
// Engine, so all limiter state lives in a single place.
type Limiters struct {
	// Queries limits API queries per server; remote fetches, the local
	// fetch and import calls all draw from it
	Queries *ratelimit.KeyedLimiter

	// Upstreams limits imports per remote status host. Advisory: checked
	// non-blocking, a denial defers the item to a later pass.
	Upstreams *ratelimit.KeyedLimiter

	// Imports limits imports into the local server overall
	Imports *ratelimit.Limiter

	// Passes limits the overall run cadence
	Passes *ratelimit.Limiter
}

// NewLimiters builds the limiter set from the configured quotas
func NewLimiters(rates config.RatesConfig) *Limiters {
	return &Limiters{
		Queries:   ratelimit.NewKeyedLimiter(ratelimit.PerMinute(rates.QueriesPerMinute)),
		Upstreams: ratelimit.NewKeyedLimiter(ratelimit.PerHour(rates.UpstreamImportsPerHour)),
		Imports:   ratelimit.NewLimiter(ratelimit.PerHour(rates.ImportsPerHour)),
		Passes:    ratelimit.NewLimiter(ratelimit.PerHour(rates.PassesPerHour)),
	}
}
