// Package tokenstore provides pluggable OAuth2 token persistence for
// oauth2session sessions.
//
// A Store survives tokens across process restarts; Updater adapts any Store
// into the session's token updater so refreshed tokens are persisted before
// the triggering request is retried.
//
// # Quick Start
//
//	store := tokenstore.NewKeyringStore("my-app", "oauth-token")
//
//	session, err := oauth2session.New("client-id",
//	    oauth2session.WithAutoRefresh("https://auth.example.com/oauth/token", nil),
//	    oauth2session.WithTokenUpdater(tokenstore.Updater(store)),
//	)
//
//	// Restore a previously saved token on startup:
//	if token, err := store.Load(ctx); err == nil {
//	    session.SetToken(token)
//	}
//
// MemoryStore is for tests and single-process use; KeyringStore uses the
// operating system keyring.
package tokenstore
