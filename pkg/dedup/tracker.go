// Package dedup tracks which status URLs have already been imported for a
// hashtag, so an item is never imported twice while it remains visible on
// the remote side.
//
// The tracker is deliberately forgetful: RetainOnly prunes it each pass to
// the intersection with the URLs currently visible remotely. An item that
// disappeared from the remote timeline can never re-enter the candidate
// diff, so remembering it forever would only leak memory.
package dedup

import "sync"

// Tracker is a bounded set of imported status URLs for one hashtag
type Tracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// Mark records a URL as successfully imported
func (t *Tracker) Mark(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[url] = struct{}{}
}

// Contains reports whether a URL was already imported
func (t *Tracker) Contains(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[url]
	return ok
}

// RetainOnly prunes the tracker to its intersection with visible and
// returns the number of entries removed. Calling it twice with the same
// set is a no-op the second time.
func (t *Tracker) RetainOnly(visible map[string]struct{}) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for url := range t.seen {
		if _, ok := visible[url]; !ok {
			delete(t.seen, url)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked URLs
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}
