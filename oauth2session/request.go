package oauth2session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/AmmannChristian/go-oauth2session/grantclient"
)

// requestOptions collects per-request settings for Do.
type requestOptions struct {
	withholdToken bool
	header        http.Header
	auth          *BasicAuth
	clientID      string
	clientSecret  string
}

// RequestOption is a per-request option for Do.
type RequestOption func(*requestOptions)

// WithholdToken sends the request without attaching the session's token.
// Refresh calls use this internally to break the interception recursion.
func WithholdToken() RequestOption {
	return func(o *requestOptions) { o.withholdToken = true }
}

// WithRequestHeader sets the request headers.
func WithRequestHeader(h http.Header) RequestOption {
	return func(o *requestOptions) { o.header = h }
}

// WithRequestAuth adds a Basic authorization to the request. If the request
// triggers an automatic refresh, this credential is diverted to the refresh
// call rather than being sent twice.
func WithRequestAuth(auth *BasicAuth) RequestOption {
	return func(o *requestOptions) { o.auth = auth }
}

// WithClientCredentials supplies a client id/secret pair used to synthesize
// Basic auth for an automatic refresh triggered by this request, when no
// explicit WithRequestAuth is given.
func WithClientCredentials(id, secret string) RequestOption {
	return func(o *requestOptions) {
		o.clientID = id
		o.clientSecret = secret
	}
}

// Do issues an HTTP request through the session, attaching the current
// token when one is held.
//
// The target URL must be https (unless insecure transport was allowed).
// When token attachment signals expiry and an auto-refresh endpoint is
// configured, the token is refreshed once — concurrent requests share a
// single refresh — persisted through the token updater, and the request is
// retried exactly once with the new token. Without a token updater the
// refresh still happens but Do fails with *TokenUpdatedError carrying the
// new token, forcing the caller to persist it. Without an auto-refresh
// endpoint, grantclient.ErrTokenExpired is returned unchanged.
//
// The caller owns the returned response body.
func (s *Session) Do(ctx context.Context, method, rawurl string, body []byte, opts ...RequestOption) (*http.Response, error) {
	if err := s.checkTransport(rawurl); err != nil {
		return nil, err
	}

	o := &requestOptions{}
	for _, opt := range opts {
		opt(o)
	}
	header := o.header.Clone()
	if header == nil {
		header = http.Header{}
	}

	if s.Token() != nil && !o.withholdToken {
		rawurl, header, body = s.hooks.invokeProtectedRequest(rawurl, header, body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawurl, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("oauth2session: building request: %w", err)
	}
	req.Header = header

	if s.Token() != nil && !o.withholdToken {
		if err := s.attachToken(req); err != nil {
			if !errors.Is(err, grantclient.ErrTokenExpired) {
				return nil, err
			}
			if err := s.refreshAndReattach(ctx, req, o); err != nil {
				return nil, err
			}
		}
	}

	if o.auth != nil {
		req.SetBasicAuth(o.auth.Username, o.auth.Password)
	}

	return s.httpClient.Do(req)
}

// refreshAndReattach drives the expired-token recovery: one shared refresh,
// persistence, then re-attachment for the single retry. A second expiry is
// terminal.
func (s *Session) refreshAndReattach(ctx context.Context, req *http.Request, o *requestOptions) error {
	if s.autoRefreshURL == "" {
		return grantclient.ErrTokenExpired
	}
	s.logf("token expired, refreshing at %s", s.autoRefreshURL)

	// The caller's auth must not be sent twice: divert it to the refresh
	// call and drop it from the retried request.
	auth := o.auth
	o.auth = nil
	if auth == nil && o.clientID != "" && o.clientSecret != "" {
		s.logf("encoding client_id %q with client_secret as Basic auth credentials", o.clientID)
		auth = &BasicAuth{Username: o.clientID, Password: o.clientSecret}
	}

	token, err := s.refreshShared(ctx, auth)
	if err != nil {
		return err
	}
	if s.tokenUpdater == nil {
		return &TokenUpdatedError{Token: token}
	}
	return s.attachToken(req)
}

// refreshShared refreshes against the auto-refresh endpoint under a
// single-flight guard, so concurrent requests observing an expired token
// share one refresh call, and persists the result through the token updater
// before any caller proceeds.
func (s *Session) refreshShared(ctx context.Context, auth *BasicAuth) (*grantclient.Token, error) {
	v, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		token, err := s.RefreshToken(ctx, s.autoRefreshURL, &RefreshTokenRequest{Auth: auth})
		if err != nil {
			return nil, err
		}
		if s.tokenUpdater != nil {
			if err := s.tokenUpdater(ctx, token); err != nil {
				return nil, fmt.Errorf("oauth2session: token updater failed: %w", err)
			}
		}
		return token, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*grantclient.Token), nil
}

// attachToken asks the grant client to add the held token to the request.
func (s *Session) attachToken(req *http.Request) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client.AttachToken(req)
}

// BearerToken returns a currently valid access token, driving the same
// refresh-and-persist path as Do when the held token has expired. It feeds
// non-HTTP carriers such as gRPC metadata.
func (s *Session) BearerToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.client.Token()
	s.mu.RUnlock()

	if token == nil || token.AccessToken == "" {
		return "", grantclient.ErrMissingToken
	}
	if !token.Expired() {
		return token.AccessToken, nil
	}
	if s.autoRefreshURL == "" {
		return "", grantclient.ErrTokenExpired
	}

	refreshed, err := s.refreshShared(ctx, nil)
	if err != nil {
		return "", err
	}
	if s.tokenUpdater == nil {
		return "", &TokenUpdatedError{Token: refreshed}
	}
	return refreshed.AccessToken, nil
}
