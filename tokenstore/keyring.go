package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/AmmannChristian/go-oauth2session/grantclient"
)

// KeyringStore persists tokens in the operating system keyring
// (Keychain on macOS, Secret Service on Linux, Credential Manager on
// Windows), serialized as the flat JSON token document.
type KeyringStore struct {
	// Service is the keyring service name, typically the application name.
	Service string

	// User is the keyring account the token is filed under.
	User string
}

// NewKeyringStore creates a keyring-backed store.
func NewKeyringStore(service, user string) *KeyringStore {
	return &KeyringStore{Service: service, User: user}
}

// Save implements Store.
func (k *KeyringStore) Save(_ context.Context, token *grantclient.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("tokenstore: encoding token: %w", err)
	}
	if err := keyring.Set(k.Service, k.User, string(data)); err != nil {
		return fmt.Errorf("tokenstore: writing keyring: %w", err)
	}
	return nil
}

// Load implements Store.
func (k *KeyringStore) Load(context.Context) (*grantclient.Token, error) {
	data, err := keyring.Get(k.Service, k.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("tokenstore: reading keyring: %w", err)
	}
	var token grantclient.Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("tokenstore: decoding stored token: %w", err)
	}
	return &token, nil
}

// Clear implements Store.
func (k *KeyringStore) Clear(context.Context) error {
	err := keyring.Delete(k.Service, k.User)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("tokenstore: clearing keyring: %w", err)
	}
	return nil
}
