package auth

import "sync"

// MockStore implements Store for testing purposes
type MockStore struct {
	creds map[string]*Credentials
	mu    sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	DeleteError   error
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{
		creds: make(map[string]*Credentials),
	}
}

// Store saves credentials to the mock store
func (m *MockStore) Store(creds *Credentials) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if creds == nil || creds.Server == "" {
		return ErrInvalidCredentials
	}

	// Copy to avoid external modifications
	credsCopy := *creds
	m.creds[creds.Server] = &credsCopy
	return nil
}

// Retrieve gets credentials from the mock store
func (m *MockStore) Retrieve(server string) (*Credentials, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	creds, ok := m.creds[server]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	credsCopy := *creds
	return &credsCopy, nil
}

// Delete removes credentials from the mock store
func (m *MockStore) Delete(server string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.creds[server]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.creds, server)
	return nil
}

// Exists checks if credentials exist in the mock store
func (m *MockStore) Exists(server string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.creds[server]
	return ok
}
