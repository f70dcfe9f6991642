// Package oauth2session provides an OAuth2-aware HTTP client session.
//
// A Session wraps an *http.Client so that every request issued through it is
// transparently authenticated with a bearer token, expired tokens are
// refreshed automatically under a single-flight guard, and non-RFC-compliant
// token servers can be accommodated through compliance hooks. It supports
// any grant type implementing grantclient.Client, including the four core
// OAuth2 grants.
//
// # Features
//
//   - Authorization URL construction with CSRF state tracking
//   - Token fetch and refresh with RFC 6749 client authentication rules
//   - Transparent token attachment with one automatic refresh-and-retry
//   - Single-flight refresh shared by concurrent requests
//   - Pluggable token persistence via WithTokenUpdater
//   - Compliance hooks for non-standard providers
//   - https enforced on every OAuth-relevant URL
//   - Bridges to http.RoundTripper and oauth2.TokenSource
//   - Optional logging (WithLogger, WithLoggingEnabled)
//
// # Quick Start
//
//	session, err := oauth2session.New("client-id",
//	    oauth2session.WithScope("profile", "email"),
//	    oauth2session.WithRedirectURI("https://app.example.com/callback"),
//	    oauth2session.WithAutoRefresh("https://auth.example.com/oauth/token", nil),
//	    oauth2session.WithTokenUpdater(func(ctx context.Context, t *grantclient.Token) error {
//	        return saveToDatabase(ctx, t)
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	authURL, state, err := session.AuthorizationURL("https://auth.example.com/oauth/authorize", "", nil)
//	// Redirect the user to authURL; receive the callback.
//
//	token, err := session.FetchToken(ctx, "https://auth.example.com/oauth/token",
//	    &oauth2session.TokenRequest{AuthorizationResponse: callbackURL})
//
//	resp, err := session.Do(ctx, http.MethodGet, "https://api.example.com/data", nil)
//
// # Compliance Hooks
//
// Providers that deviate from RFC 6749 are handled by registering hooks at
// three fixed points:
//
//	session.RegisterComplianceHook(oauth2session.HookAccessTokenResponse,
//	    oauth2session.ResponseHook(fixMalformedTokenBody))
//
// # Notes
//
//   - Without a token updater, an automatic refresh fails the request with
//     *TokenUpdatedError carrying the new token; persist it and retry.
//   - Register hooks before issuing concurrent traffic.
//   - A Session is safe for concurrent use.
package oauth2session
