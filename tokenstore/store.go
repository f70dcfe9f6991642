package tokenstore

import (
	"context"
	"errors"
	"sync"

	"github.com/AmmannChristian/go-oauth2session/grantclient"
	"github.com/AmmannChristian/go-oauth2session/oauth2session"
)

// ErrNotFound is returned by Load when no token has been stored.
var ErrNotFound = errors.New("tokenstore: token not found")

// Store persists OAuth2 tokens across process restarts.
type Store interface {
	// Save writes the token, replacing any previous one.
	Save(ctx context.Context, token *grantclient.Token) error

	// Load returns the stored token, or ErrNotFound.
	Load(ctx context.Context) (*grantclient.Token, error)

	// Clear removes the stored token. Clearing an empty store is not an
	// error.
	Clear(ctx context.Context) error
}

// Updater adapts a Store into the session's token persistence callback, so
// every automatic refresh lands in the store before the request is retried.
func Updater(s Store) oauth2session.TokenUpdater {
	return func(ctx context.Context, token *grantclient.Token) error {
		return s.Save(ctx, token)
	}
}

// MemoryStore keeps the token in process memory. Useful for tests and for
// embedding when persistence across restarts is not needed.
type MemoryStore struct {
	mu    sync.Mutex
	token *grantclient.Token
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, token *grantclient.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(context.Context) (*grantclient.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil, ErrNotFound
	}
	return m.token, nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil
	return nil
}
