package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/plotta/internal/model"
)

func TestVault_SessionIsCreatedOnce(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring(nil))

	first, err := v.Session()
	require.NoError(t, err)
	assert.NotEmpty(t, first.UserID)

	second, err := v.Session()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestVault_SaveSession(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring(nil))

	require.NoError(t, v.SaveSession(model.Session{UserID: "u1", Email: "u1@example.com"}))
	s, err := v.Session()
	require.NoError(t, err)
	assert.Equal(t, model.Session{UserID: "u1", Email: "u1@example.com"}, s)

	assert.Error(t, v.SaveSession(model.Session{}))
}

func TestVault_GetSetDelete(t *testing.T) {
	v := NewVault(keyring.NewArrayKeyring(nil))

	require.NoError(t, v.Set(KeyAIAPIKey, "sk-test"))
	got, err := v.Get(KeyAIAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", got)

	require.NoError(t, v.Delete(KeyAIAPIKey))
	_, err = v.Get(KeyAIAPIKey)
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}
