package mastodon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	errs "tagmirror/pkg/errors"
	"tagmirror/pkg/logger"
	"tagmirror/pkg/retry"
)

// Client talks to Mastodon-compatible servers. One client serves all
// servers; the target host is passed per call.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	scheme     string
	logger     logger.Logger
	retryCfg   *retry.Config
}

// NewClient creates a client with the given transport timeout
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	// Some servers set session cookies on anonymous timeline fetches and
	// misbehave when they are dropped
	jar, _ := cookiejar.New(nil)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		headers: map[string]string{
			"User-Agent": UserAgent,
			"Accept":     "application/json",
		},
		scheme:   "https",
		logger:   log,
		retryCfg: retry.DefaultConfig(),
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetScheme overrides the URL scheme, used by tests against plain-HTTP servers
func (c *Client) SetScheme(scheme string) {
	c.scheme = scheme
}

// SetRetryConfig overrides the retry behavior for timeline fetches
func (c *Client) SetRetryConfig(cfg *retry.Config) {
	c.retryCfg = cfg
}

// TagTimeline fetches up to limit recent statuses for a hashtag from the
// given server. An empty token performs an anonymous/public fetch.
// Transient failures are retried; this is an idempotent read.
func (c *Client) TagTimeline(ctx context.Context, server, token, name string, any []string, limit int) ([]Status, error) {
	reqURL := TagTimelineURL(c.serverURL(server), name, any, limit)

	return retry.DoWithResult(func() ([]Status, error) {
		var statuses []Status
		if err := c.getJSON(ctx, reqURL, token, &statuses); err != nil {
			return nil, err
		}
		return statuses, nil
	}, c.retryCfg)
}

// ImportStatus makes the server fetch and index a remote status by
// resolving its URL through the search API. Not retried: a failed import
// is picked up again on the next pass.
func (c *Client) ImportStatus(ctx context.Context, server, token, statusURL string) error {
	reqURL := SearchURL(c.serverURL(server), statusURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeUnknown, "failed to build import request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// The search result body is irrelevant; resolving is the side effect
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// RegisterApp registers this application on the given server and returns
// the client credentials. One-time interactive setup.
func (c *Client) RegisterApp(ctx context.Context, server string) (*AppCredentials, error) {
	payload := appRegistration{
		ClientName:   ClientName,
		RedirectURIs: OOBRedirectURI,
		Scopes:       ScopeRead,
		Website:      ClientWebsite,
	}

	var creds AppCredentials
	if err := c.postJSON(ctx, c.serverURL(server)+AppsEndpoint, payload, &creds); err != nil {
		return nil, err
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, errs.New(errs.ErrorTypeParsing, "registration response missing client credentials")
	}
	return &creds, nil
}

// ExchangeCode trades an authorization code for an access token.
// One-time interactive setup.
func (c *Client) ExchangeCode(ctx context.Context, server, clientID, clientSecret, code string) (string, error) {
	payload := tokenRequest{
		GrantType:    "authorization_code",
		Code:         code,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  OOBRedirectURI,
		Scope:        ScopeRead,
	}

	var token tokenResponse
	if err := c.postJSON(ctx, c.serverURL(server)+TokenEndpoint, payload, &token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", errs.New(errs.ErrorTypeParsing, "token response missing access_token")
	}
	return token.AccessToken, nil
}

func (c *Client) serverURL(server string) string {
	return c.scheme + "://" + server
}

// getJSON performs an authenticated GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, reqURL, token string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeUnknown, "failed to build request")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errs.Wrap(err, errs.ErrorTypeParsing, "response body is not valid JSON")
	}
	return nil
}

// postJSON performs a POST with a JSON payload and decodes the JSON response
func (c *Client) postJSON(ctx context.Context, reqURL string, payload, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeUnknown, "failed to encode request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeUnknown, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errs.Wrap(err, errs.ErrorTypeParsing, "response body is not valid JSON")
	}
	return nil
}

// doRequest performs an HTTP request with the configured headers and maps
// transport failures and error statuses to typed errors. On success the
// caller owns the response body.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Err:     err,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, statusError(resp.StatusCode, string(snippet))
	}
	return resp, nil
}

// statusError maps an HTTP error status to a typed error
func statusError(code int, body string) *errs.Error {
	var errorType errs.ErrorType
	switch {
	case code == 401 || code == 403:
		errorType = errs.ErrorTypeAuth
	case code == 404:
		errorType = errs.ErrorTypeNotFound
	case code == 429:
		errorType = errs.ErrorTypeRateLimit
	case code >= 500:
		errorType = errs.ErrorTypeServerError
	default:
		errorType = errs.ErrorTypeUnknown
	}

	message := http.StatusText(code)
	if body != "" {
		message = fmt.Sprintf("%s: %s", message, body)
	}
	return &errs.Error{Type: errorType, Message: message, Code: code}
}
