package oauth2session

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that authenticates outgoing requests
// with the session's bearer token, refreshing it through the session's
// auto-refresh path when expired.
//
// It wraps an existing transport (typically http.DefaultTransport) and
// injects the Authorization header before each request. Compliance hooks
// registered on the session do not run on this path; use Session.Do when
// protected_request hooks must apply.
type Transport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport
	// is used.
	Base http.RoundTripper

	// Session provides and refreshes the bearer token.
	Session *Session
}

// NewTransport creates a Transport over the given session. The base
// transport defaults to http.DefaultTransport if nil.
func NewTransport(s *Session, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Session: s}
}

// RoundTrip implements http.RoundTripper. It obtains a valid token from the
// session and adds it as "Authorization: Bearer <token>" before delegating
// to the base transport. The token fetch respects the request context.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Session == nil {
		return nil, fmt.Errorf("oauth2session: Transport has no Session")
	}
	if err := t.Session.checkTransport(req.URL.String()); err != nil {
		return nil, err
	}

	token, err := t.Session.BearerToken(req.Context())
	if err != nil {
		return nil, fmt.Errorf("oauth2session: failed to get token: %w", err)
	}

	// Clone the request to avoid modifying the original.
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+token)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(reqClone)
}

// HTTPClient returns a plain *http.Client whose requests ride the session's
// token lifecycle, for libraries that only accept an http.Client.
func (s *Session) HTTPClient() *http.Client {
	return &http.Client{
		Transport: NewTransport(s, nil),
		Timeout:   s.httpClient.Timeout,
	}
}
