package auth

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCreds() *Credentials {
	return &Credentials{
		Server:       "social.example",
		ClientID:     "id-123",
		ClientSecret: "secret-456",
		AccessToken:  "token-789",
	}
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())

	require.NoError(t, m.Store(testCreds()))

	got, err := m.Retrieve("social.example")
	require.NoError(t, err)
	assert.Equal(t, "id-123", got.ClientID)
	assert.Equal(t, "token-789", got.AccessToken)
	assert.False(t, got.LastModified.IsZero(), "Store must stamp LastModified")
}

func TestManagerValidation(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())

	assert.Error(t, m.Store(nil))
	assert.Error(t, m.Store(&Credentials{Server: "social.example"}))
	assert.Error(t, m.Store(&Credentials{ClientID: "id", ClientSecret: "sec"}))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	broken.RetrieveError = ErrCredentialsNotFound
	working := NewMockStore()

	m := NewManagerWithStores(broken, working)

	require.NoError(t, m.Store(testCreds()))
	assert.False(t, broken.Exists("social.example"))
	assert.True(t, working.Exists("social.example"))

	got, err := m.Retrieve("social.example")
	require.NoError(t, err)
	assert.Equal(t, "id-123", got.ClientID)
}

func TestManagerRetrieveMissing(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())
	_, err := m.Retrieve("unknown.example")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerDelete(t *testing.T) {
	store := NewMockStore()
	m := NewManagerWithStores(store)

	require.NoError(t, m.Store(testCreds()))
	require.NoError(t, m.Delete("social.example"))
	assert.False(t, m.Exists("social.example"))
	assert.ErrorIs(t, m.Delete("social.example"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	t.Setenv("TAGMIRROR_STORE_KEY", "test-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(testCreds()))

	got, err := store.Retrieve("social.example")
	require.NoError(t, err)
	assert.Equal(t, "secret-456", got.ClientSecret)
	assert.Equal(t, "token-789", got.AccessToken)

	// A second store instance over the same file can read it back
	store2, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	got, err = store2.Retrieve("social.example")
	require.NoError(t, err)
	assert.Equal(t, "id-123", got.ClientID)
}

func TestEncryptedFileStoreWrongKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv("TAGMIRROR_STORE_KEY", "right-key")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(testCreds()))

	t.Setenv("TAGMIRROR_STORE_KEY", "wrong-key")
	store2, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = store2.Retrieve("social.example")
	assert.Error(t, err)
}

func TestEncryptedFileStoreDelete(t *testing.T) {
	t.Setenv("TAGMIRROR_STORE_KEY", "test-passphrase")

	path := filepath.Join(t.TempDir(), "credentials.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(testCreds()))
	require.True(t, store.Exists("social.example"))
	require.NoError(t, store.Delete("social.example"))
	assert.False(t, store.Exists("social.example"))
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("TAGMIRROR_CLIENT_ID", "env-id")
	t.Setenv("TAGMIRROR_CLIENT_SECRET", "env-secret")
	t.Setenv("TAGMIRROR_TOKEN", "env-token")

	store := NewEnvironmentStore()
	require.True(t, store.Exists("social.example"))

	got, err := store.Retrieve("social.example")
	require.NoError(t, err)
	assert.Equal(t, "env-id", got.ClientID)
	assert.Equal(t, "env-token", got.AccessToken)
	assert.Equal(t, "social.example", got.Server)

	assert.ErrorIs(t, store.Store(testCreds()), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("social.example"), ErrStoreUnavailable)
}

func TestEnvironmentStoreMissing(t *testing.T) {
	t.Setenv("TAGMIRROR_CLIENT_ID", "")
	t.Setenv("TAGMIRROR_CLIENT_SECRET", "")

	store := NewEnvironmentStore()
	assert.False(t, store.Exists("social.example"))
	_, err := store.Retrieve("social.example")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}
