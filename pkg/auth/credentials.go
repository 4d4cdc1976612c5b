// Package auth stores the registered application credentials and the user
// access token, keyed by server host. Storage backends are tried in order:
// system keychain, encrypted file, environment variables.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrInvalidCredentials indicates the credentials are incomplete
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCredentialsNotFound indicates no credentials exist for the server
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrStoreUnavailable indicates the backend cannot perform the operation
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// Credentials holds everything needed to talk to one Mastodon server
type Credentials struct {
	Server       string    `json:"server"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	AccessToken  string    `json:"access_token,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the interface for storing and retrieving credentials
type Store interface {
	// Store saves credentials for a server
	Store(creds *Credentials) error

	// Retrieve gets credentials for a specific server
	Retrieve(server string) (*Credentials, error)

	// Delete removes credentials for a specific server
	Delete(server string) error

	// Exists checks if credentials exist for a server
	Exists(server string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []Store
}

// NewManager creates a credential manager with the available backends
func NewManager() (*Manager, error) {
	var stores []Store

	// Try keyring first (system keychain)
	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	// Always add encrypted file store as fallback
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	// Environment variables as last resort
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit backends, for tests
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first backend that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if creds == nil || creds.Server == "" {
		return ErrInvalidCredentials
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return ErrInvalidCredentials
	}

	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(creds); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first backend that has them
func (m *Manager) Retrieve(server string) (*Credentials, error) {
	if server == "" {
		return nil, ErrInvalidCredentials
	}

	for _, store := range m.stores {
		creds, err := store.Retrieve(server)
		if err == nil {
			return creds, nil
		}
	}
	return nil, ErrCredentialsNotFound
}

// Delete removes credentials for the server from every backend
func (m *Manager) Delete(server string) error {
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(server); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// Exists checks if any backend has credentials for the server
func (m *Manager) Exists(server string) bool {
	for _, store := range m.stores {
		if store.Exists(server) {
			return true
		}
	}
	return false
}

// getConfigDir returns the directory for tagmirror's private files
func getConfigDir() (string, error) {
	if dir := os.Getenv("TAGMIRROR_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "tagmirror"), nil
}
