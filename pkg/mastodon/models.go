package mastodon

// Status is a single post returned by a hashtag timeline. Only the URL
// matters to the synchronizer; the other fields give log context.
type Status struct {
	ID        string  `json:"id"`
	URL       string  `json:"url"`
	CreatedAt string  `json:"created_at"`
	Account   Account `json:"account"`
}

// Account is the author of a status
type Account struct {
	Acct string `json:"acct"`
}

// AppCredentials is the result of registering an application
type AppCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// appRegistration is the payload for POST /api/v1/apps
type appRegistration struct {
	ClientName   string `json:"client_name"`
	RedirectURIs string `json:"redirect_uris"`
	Scopes       string `json:"scopes"`
	Website      string `json:"website"`
}

// tokenRequest is the payload for POST /oauth/token
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	Scope        string `json:"scope"`
}

// tokenResponse is the body returned by the token exchange
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}
