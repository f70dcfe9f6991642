package grantclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// TokenRequestParams carries the inputs for building a grant-specific token
// request body. Fields irrelevant to a given grant type are ignored by it.
type TokenRequestParams struct {
	// Code is the authorization code (authorization-code grant).
	Code string

	// RedirectURI is the registered callback, echoed in the body when set.
	RedirectURI string

	// Username and Password are the resource owner credentials
	// (password grant).
	Username string
	Password string

	// IncludeClientID requests that client_id appear in the body.
	IncludeClientID bool

	// ClientID is the value used when IncludeClientID is set, or when the
	// grant type always carries it.
	ClientID string

	// ClientSecret, when non-nil, is added to the body. A pointer
	// distinguishes "omit" from "send empty string".
	ClientSecret *string

	// Scope is the requested scope.
	Scope []string

	// Extra parameters are merged into the body last and may override
	// standard ones, which is how non-compliant servers are accommodated.
	Extra url.Values
}

// AuthorizationResponse is the parsed result of an authorization callback.
type AuthorizationResponse struct {
	// Code is the authorization code (authorization-code grant).
	Code string

	// State echoes the CSRF state from the callback.
	State string

	// Token is set for the implicit grant, where the token arrives in the
	// URI fragment instead of a code.
	Token *Token
}

// Client is a grant-type-specific OAuth2 client. It knows how to build
// authorization URLs and token request bodies for its grant, parse callback
// and token responses, and attach its held token to outgoing requests.
//
// A Client is owned by a single session; the session serializes access to
// the mutable attributes.
type Client interface {
	// ClientID returns the registered client identifier, empty if cleared.
	ClientID() string

	// SetClientID replaces the client identifier. An empty value clears it.
	SetClientID(id string)

	// Token returns the held token, nil if none.
	Token() *Token

	// SetToken replaces the held token wholesale and resynchronizes every
	// attribute derived from it. A nil or empty token clears it.
	SetToken(t *Token)

	// AccessToken returns the held token's access token, empty if none.
	AccessToken() string

	// SetAccessToken overwrites the access token on the held token,
	// creating an otherwise-empty token if none is held.
	SetAccessToken(v string)

	// AuthorizationURL builds the authorization redirect URL for this grant.
	AuthorizationURL(endpoint, redirectURI string, scope []string, state string, extra url.Values) (string, error)

	// PrepareTokenRequest builds the form body for the initial token fetch.
	PrepareTokenRequest(params TokenRequestParams) (url.Values, error)

	// PrepareRefreshRequest builds the form body for a refresh call.
	PrepareRefreshRequest(refreshToken string, scope []string, extra url.Values) (url.Values, error)

	// ParseAuthorizationResponse parses the callback URL of an authorization
	// round-trip, verifying the echoed state against expectedState.
	ParseAuthorizationResponse(callbackURL, expectedState string) (*AuthorizationResponse, error)

	// ParseTokenResponse parses a token endpoint response body into a Token.
	// Error documents and unparsable bodies fail with *RemoteError.
	ParseTokenResponse(statusCode int, body []byte, scope []string) (*Token, error)

	// AttachToken adds the held token to an outgoing request, normally as an
	// Authorization: Bearer header. Fails with ErrTokenExpired when the
	// token's expiry has passed and ErrMissingToken when no token is held.
	AttachToken(req *http.Request) error
}

// baseClient implements the attribute surface and the behavior shared by all
// grant types.
type baseClient struct {
	clientID string
	token    *Token
}

func (c *baseClient) ClientID() string { return c.clientID }

func (c *baseClient) SetClientID(id string) { c.clientID = id }

func (c *baseClient) Token() *Token { return c.token }

func (c *baseClient) SetToken(t *Token) {
	if t != nil && t.AccessToken == "" && t.RefreshToken == "" && len(t.Raw) == 0 {
		t = nil
	}
	c.token = t
}

func (c *baseClient) AccessToken() string {
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

func (c *baseClient) SetAccessToken(v string) {
	if v == "" {
		if c.token != nil {
			c.token.AccessToken = ""
		}
		return
	}
	if c.token == nil {
		c.token = &Token{}
	}
	c.token.AccessToken = v
}

// AttachToken implements bearer attachment per RFC 6750. Token types other
// than bearer are rejected rather than silently sent with the wrong scheme.
func (c *baseClient) AttachToken(req *http.Request) error {
	if c.token == nil || c.token.AccessToken == "" {
		return ErrMissingToken
	}
	if c.token.Expired() {
		return ErrTokenExpired
	}
	if c.token.TokenType != "" && !strings.EqualFold(c.token.TokenType, "bearer") {
		return fmt.Errorf("grantclient: unsupported token type %q", c.token.TokenType)
	}
	req.Header.Set("Authorization", "Bearer "+c.token.AccessToken)
	return nil
}

// ParseTokenResponse is shared by every grant type that talks to a token
// endpoint. requestedScope is informational; a scope change by the server is
// accepted, matching the permissive behavior most providers require.
func (c *baseClient) ParseTokenResponse(statusCode int, body []byte, _ []string) (*Token, error) {
	raw, err := parseTokenBody(body)
	if err != nil {
		return nil, &RemoteError{StatusCode: statusCode}
	}
	if remoteErr := remoteErrorFromRaw(statusCode, raw); remoteErr != nil {
		return nil, remoteErr
	}
	if statusCode >= 400 {
		return nil, &RemoteError{StatusCode: statusCode}
	}
	token, err := tokenFromRaw(raw)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, &RemoteError{StatusCode: statusCode}
	}
	return token, nil
}

// PrepareRefreshRequest builds the standard refresh_token grant body. Every
// grant type refreshes the same way.
func (c *baseClient) PrepareRefreshRequest(refreshToken string, scope []string, extra url.Values) (url.Values, error) {
	if refreshToken == "" {
		return nil, errors.New("grantclient: refresh token is required")
	}
	body := url.Values{}
	body.Set("grant_type", "refresh_token")
	body.Set("refresh_token", refreshToken)
	if len(scope) > 0 {
		body.Set("scope", strings.Join(scope, " "))
	}
	mergeValues(body, extra)
	return body, nil
}

// buildAuthorizationURL assembles an authorization endpoint URL with the
// given response_type and standard parameters.
func buildAuthorizationURL(endpoint, responseType, clientID, redirectURI string, scope []string, state string, extra url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("grantclient: invalid authorization endpoint: %w", err)
	}

	q := u.Query()
	q.Set("response_type", responseType)
	if clientID != "" {
		q.Set("client_id", clientID)
	}
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}
	if len(scope) > 0 {
		q.Set("scope", strings.Join(scope, " "))
	}
	if state != "" {
		q.Set("state", state)
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// mergeValues copies every src entry into dst, overriding existing keys.
func mergeValues(dst url.Values, src url.Values) {
	for k, vs := range src {
		dst.Del(k)
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

// verifyState compares the state echoed by the authorization server against
// the one issued with the authorization URL.
func verifyState(got, expected string) error {
	if expected == "" {
		return nil
	}
	if got != expected {
		return fmt.Errorf("%w: got %q", ErrStateMismatch, got)
	}
	return nil
}

// errGrantUnsupported builds the error returned when an operation does not
// exist for a grant type.
func errGrantUnsupported(grant, op string) error {
	return errors.New("grantclient: " + op + " is not supported by the " + grant + " grant")
}
