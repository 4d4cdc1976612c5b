package syncer

import (
	"context"

	"tagmirror/pkg/mastodon"
)

// API is the slice of the Mastodon client the sync core consumes
type API interface {
	// TagTimeline fetches up to limit recent statuses for a hashtag from
	// server; an empty token fetches anonymously
	TagTimeline(ctx context.Context, server, token, name string, any []string, limit int) ([]mastodon.Status, error)

	// ImportStatus makes server fetch and index the remote status URL
	ImportStatus(ctx context.Context, server, token, statusURL string) error
}
