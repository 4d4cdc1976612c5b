package mastodon

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// ClientName is the application name sent during app registration
	ClientName = "tagmirror"

	// ClientWebsite is the application website sent during app registration
	ClientWebsite = "https://github.com/tagmirror/tagmirror"

	// UserAgent identifies this client to remote servers
	UserAgent = "tagmirror v1.0.0"

	// OOBRedirectURI is the out-of-band redirect URI for the manual
	// copy-paste authorization flow
	OOBRedirectURI = "urn:ietf:wg:oauth:2.0:oob"

	// ScopeRead is the only OAuth scope the synchronizer needs
	ScopeRead = "read"

	// TimelineEndpoint is the endpoint pattern for hashtag timelines
	TimelineEndpoint = "/api/v1/timelines/tag/"

	// SearchEndpoint is the endpoint used to resolve (import) a remote status
	SearchEndpoint = "/api/v2/search"

	// AppsEndpoint is the endpoint for application registration
	AppsEndpoint = "/api/v1/apps"

	// TokenEndpoint is the endpoint for the OAuth token exchange
	TokenEndpoint = "/oauth/token"

	// AuthorizeEndpoint is the endpoint the user opens to grant access
	AuthorizeEndpoint = "/oauth/authorize"
)

// TagTimelineURL constructs the URL for fetching a hashtag timeline.
// Alternate-tag filters are passed as repeated any[] parameters.
func TagTimelineURL(base, name string, any []string, limit int) string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	for _, alt := range any {
		params.Add("any[]", alt)
	}
	return fmt.Sprintf("%s%s%s?%s", base, TimelineEndpoint, url.PathEscape(name), params.Encode())
}

// SearchURL constructs the resolving search URL that makes the local
// server fetch and index a remote status
func SearchURL(base, statusURL string) string {
	params := url.Values{}
	params.Set("q", statusURL)
	params.Set("resolve", "true")
	params.Set("limit", "25")
	params.Set("type", "statuses")
	return fmt.Sprintf("%s%s?%s", base, SearchEndpoint, params.Encode())
}

// AuthorizeURL constructs the URL the user must open to authorize the app
func AuthorizeURL(server, clientID string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", clientID)
	params.Set("redirect_uri", OOBRedirectURI)
	params.Set("scope", ScopeRead)
	return fmt.Sprintf("https://%s%s?%s", server, AuthorizeEndpoint, params.Encode())
}
