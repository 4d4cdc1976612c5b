package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements Store using environment variables. Read-only;
// useful for container deployments where no keychain exists.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(server string) (*Credentials, error) {
	clientID := os.Getenv("TAGMIRROR_CLIENT_ID")
	clientSecret := os.Getenv("TAGMIRROR_CLIENT_SECRET")
	token := os.Getenv("TAGMIRROR_TOKEN")

	if clientID == "" || clientSecret == "" {
		return nil, ErrCredentialsNotFound
	}

	// The environment can only describe one server; honor whatever server
	// the caller asked for
	return &Credentials{
		Server:       server,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AccessToken:  token,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(server string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(server string) bool {
	return os.Getenv("TAGMIRROR_CLIENT_ID") != "" && os.Getenv("TAGMIRROR_CLIENT_SECRET") != ""
}
