package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
	"github.com/google/uuid"

	"github.com/nhle/plotta/internal/model"
)

const serviceName = "plotta"

// Keys of the items kept in the keyring.
const (
	KeySessionUserID = "session.user_id"
	KeySessionEmail  = "session.email"
	KeyAIAPIKey      = "ai.api_key"
)

// Vault reads and writes credentials in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// NewVault wraps an already opened keyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Open returns a Vault backed by the system keyring.
func Open() (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/plotta/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("plotta-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewVault(ring), nil
}

// Get retrieves a credential value by key.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (v *Vault) Set(key string, value string) error {
	err := v.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key.
func (v *Vault) Delete(key string) error {
	if err := v.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Session returns the stored session. A device without one gets a new
// local identity, which is stored for later runs.
func (v *Vault) Session() (model.Session, error) {
	userID, err := v.Get(KeySessionUserID)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		s := model.Session{UserID: uuid.New().String()}
		if err := v.SaveSession(s); err != nil {
			return model.Session{}, err
		}
		return s, nil
	}
	if err != nil {
		return model.Session{}, err
	}

	email, err := v.Get(KeySessionEmail)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return model.Session{}, err
	}
	return model.Session{UserID: userID, Email: email}, nil
}

// SaveSession stores the session identity.
func (v *Vault) SaveSession(s model.Session) error {
	if s.UserID == "" {
		return fmt.Errorf("session user id must not be empty")
	}
	if err := v.Set(KeySessionUserID, s.UserID); err != nil {
		return err
	}
	if s.Email == "" {
		return nil
	}
	return v.Set(KeySessionEmail, s.Email)
}
