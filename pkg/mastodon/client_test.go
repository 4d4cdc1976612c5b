package mastodon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "tagmirror/pkg/errors"
	"tagmirror/pkg/logger"
	"tagmirror/pkg/retry"
)

// testClient returns a client pointed at plain HTTP with retries disabled
func testClient() *Client {
	c := NewClient(5*time.Second, logger.NewNopLogger())
	c.SetScheme("http")
	c.SetRetryConfig(&retry.Config{
		MaxAttempts: 1,
		Backoff:     &retry.ConstantBackoff{},
		RetryIf:     func(error) bool { return false },
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	})
	return c
}

func serverHost(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	return u.Host
}

func TestTagTimeline(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	var gotAuth string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]Status{
			{ID: "1", URL: "https://remote.example/@a/1"},
			{ID: "2", URL: "https://remote.example/@b/2"},
		})
	}))
	defer ts.Close()

	c := testClient()
	statuses, err := c.TagTimeline(context.Background(), serverHost(t, ts), "secret", "kr2024",
		[]string{"KernelRecipes2024", "kr24"}, 25)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/timelines/tag/kr2024", gotPath)
	assert.Equal(t, "25", gotQuery.Get("limit"))
	assert.Equal(t, []string{"KernelRecipes2024", "kr24"}, gotQuery["any[]"])
	assert.Equal(t, "Bearer secret", gotAuth)

	require.Len(t, statuses, 2)
	assert.Equal(t, "https://remote.example/@a/1", statuses[0].URL)
}

func TestTagTimelineAnonymous(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]Status{})
	}))
	defer ts.Close()

	_, err := testClient().TagTimeline(context.Background(), serverHost(t, ts), "", "golang", nil, 25)
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "anonymous fetch must not send an Authorization header")
}

func TestTagTimelineErrorMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantType errs.ErrorType
	}{
		{http.StatusUnauthorized, errs.ErrorTypeAuth},
		{http.StatusForbidden, errs.ErrorTypeAuth},
		{http.StatusNotFound, errs.ErrorTypeNotFound},
		{http.StatusTooManyRequests, errs.ErrorTypeRateLimit},
		{http.StatusInternalServerError, errs.ErrorTypeServerError},
		{http.StatusBadGateway, errs.ErrorTypeServerError},
	}

	for _, tt := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		_, err := testClient().TagTimeline(context.Background(), serverHost(t, ts), "", "golang", nil, 25)
		require.Error(t, err)
		var apiErr *errs.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tt.wantType, apiErr.Type, "status %d", tt.status)
		assert.Equal(t, tt.status, apiErr.Code)
		ts.Close()
	}
}

func TestTagTimelineMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	_, err := testClient().TagTimeline(context.Background(), serverHost(t, ts), "", "golang", nil, 25)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
}

func TestTagTimelineRetriesTransientErrors(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]Status{{URL: "https://remote.example/@a/1"}})
	}))
	defer ts.Close()

	c := NewClient(5*time.Second, logger.NewNopLogger())
	c.SetScheme("http")
	c.SetRetryConfig(&retry.Config{
		MaxAttempts: 2,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	})

	statuses, err := c.TagTimeline(context.Background(), serverHost(t, ts), "", "golang", nil, 25)
	require.NoError(t, err)
	assert.Len(t, statuses, 1)
	assert.Equal(t, 2, calls)
}

func TestImportStatus(t *testing.T) {
	var gotQuery url.Values
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/search", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"statuses":[]}`))
	}))
	defer ts.Close()

	err := testClient().ImportStatus(context.Background(), serverHost(t, ts), "secret",
		"https://remote.example/@a/1")
	require.NoError(t, err)

	assert.Equal(t, "https://remote.example/@a/1", gotQuery.Get("q"))
	assert.Equal(t, "true", gotQuery.Get("resolve"))
	assert.Equal(t, "statuses", gotQuery.Get("type"))
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestImportStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	err := testClient().ImportStatus(context.Background(), serverHost(t, ts), "bad-token",
		"https://remote.example/@a/1")
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
}

func TestRegisterApp(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/apps", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var reg map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reg))
		assert.Equal(t, ClientName, reg["client_name"])
		assert.Equal(t, OOBRedirectURI, reg["redirect_uris"])
		assert.Equal(t, ScopeRead, reg["scopes"])

		json.NewEncoder(w).Encode(AppCredentials{ClientID: "id-123", ClientSecret: "secret-456"})
	}))
	defer ts.Close()

	creds, err := testClient().RegisterApp(context.Background(), serverHost(t, ts))
	require.NoError(t, err)
	assert.Equal(t, "id-123", creds.ClientID)
	assert.Equal(t, "secret-456", creds.ClientSecret)
}

func TestRegisterAppMissingCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := testClient().RegisterApp(context.Background(), serverHost(t, ts))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeParsing))
}

func TestExchangeCode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "authorization_code", req["grant_type"])
		assert.Equal(t, "the-code", req["code"])
		assert.Equal(t, "id-123", req["client_id"])

		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "access-789"})
	}))
	defer ts.Close()

	token, err := testClient().ExchangeCode(context.Background(), serverHost(t, ts),
		"id-123", "secret-456", "the-code")
	require.NoError(t, err)
	assert.Equal(t, "access-789", token)
}

func TestAuthorizeURL(t *testing.T) {
	u := AuthorizeURL("social.example", "id-123")
	parsed, err := url.Parse(u)
	require.NoError(t, err)

	assert.Equal(t, "social.example", parsed.Host)
	assert.Equal(t, "/oauth/authorize", parsed.Path)
	assert.Equal(t, "code", parsed.Query().Get("response_type"))
	assert.Equal(t, "id-123", parsed.Query().Get("client_id"))
	assert.Equal(t, OOBRedirectURI, parsed.Query().Get("redirect_uri"))
	assert.True(t, strings.HasPrefix(u, "https://"))
}
