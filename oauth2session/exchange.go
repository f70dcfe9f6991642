package oauth2session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AmmannChristian/go-oauth2session/grantclient"
)

// BasicAuth is an HTTP Basic credential pair for token endpoint
// authentication.
type BasicAuth struct {
	Username string
	Password string
}

// TokenRequest carries the optional inputs of FetchToken. The zero value is
// a valid request for grants that need no further input.
type TokenRequest struct {
	// Code is the authorization code (authorization code grant). When empty
	// and AuthorizationResponse is set, the code is parsed from it.
	Code string

	// AuthorizationResponse is the full callback URL of the authorization
	// redirect, used instead of Code.
	AuthorizationResponse string

	// Body parameters are merged into the token request body.
	Body url.Values

	// Auth supplies an explicit Basic authorization for the token endpoint.
	// When set, client_id is assumed to be represented by it and is left out
	// of the body unless IncludeClientID forces it in.
	Auth *BasicAuth

	// Username and Password are required by the password grant.
	Username string
	Password string

	// Method is the HTTP method for the token request: POST (default)
	// or GET.
	Method string

	// ForceQuerystring sends the body as a querystring even on POST.
	ForceQuerystring bool

	// Timeout bounds this exchange; zero means the HTTP client's timeout.
	Timeout time.Duration

	// Header replaces the default Accept/Content-Type headers when set.
	Header http.Header

	// IncludeClientID controls whether client_id appears in the request
	// body. Nil autodetects: false when Auth is supplied, true otherwise
	// once the session's client id is adopted.
	IncludeClientID *bool

	// ClientID overrides the session's client id for this exchange.
	ClientID string

	// ClientSecret pairs with the client id. Nil omits it; a pointer to an
	// empty string sends an empty secret, which some providers require.
	ClientSecret *string
}

// RefreshTokenRequest carries the optional inputs of RefreshToken.
type RefreshTokenRequest struct {
	// RefreshToken overrides the current token's refresh token.
	RefreshToken string

	// Body parameters are merged into the refresh request body after the
	// session's auto-refresh parameters.
	Body url.Values

	// Auth supplies a Basic authorization for the refresh endpoint.
	Auth *BasicAuth

	// Timeout bounds this refresh; zero means the HTTP client's timeout.
	Timeout time.Duration

	// Header replaces the default Accept/Content-Type headers when set.
	Header http.Header
}

// defaultTokenHeader returns the headers RFC 6749 token requests carry.
func defaultTokenHeader() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	return h
}

// FetchToken fetches an access token from the token endpoint and stores it
// on the session.
//
// The endpoint must use https. For the authorization code grant, supply
// either req.Code or req.AuthorizationResponse; the callback state is
// verified against the state issued with the authorization URL. The
// password grant requires req.Username and req.Password. Client
// authentication follows the RFC: without an explicit req.Auth, the
// session's client id and req.ClientSecret are encoded as Basic auth
// credentials; IncludeClientID moves them into the body instead.
func (s *Session) FetchToken(ctx context.Context, tokenURL string, req *TokenRequest) (*grantclient.Token, error) {
	if req == nil {
		req = &TokenRequest{}
	}
	if err := s.checkTransport(tokenURL); err != nil {
		return nil, err
	}

	code, err := s.resolveCode(req)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	client := s.client
	scope := s.scope
	redirectURI := s.redirectURI
	sessionClientID := client.ClientID()
	s.mu.RUnlock()

	if _, ok := client.(*grantclient.PasswordClient); ok {
		if req.Username == "" {
			return nil, ErrMissingUsername
		}
		if req.Password == "" {
			return nil, ErrMissingPassword
		}
	}

	// Client authentication: an explicit Auth is assumed to already
	// represent the client, so client_id stays out of the body unless
	// forced. Without one, the session's client id and secret become Basic
	// auth credentials per RFC 6749 section 2.3.1.
	auth := req.Auth
	clientID := req.ClientID
	includeClientID := req.IncludeClientID != nil && *req.IncludeClientID
	if auth == nil {
		if !includeClientID {
			clientID = sessionClientID
		}
		if clientID != "" {
			s.logf("encoding client_id %q with client_secret as Basic auth credentials", clientID)
			secret := ""
			if req.ClientSecret != nil {
				secret = *req.ClientSecret
			}
			auth = &BasicAuth{Username: clientID, Password: secret}
		}
	}

	params := grantclient.TokenRequestParams{
		Code:            code,
		RedirectURI:     redirectURI,
		Username:        req.Username,
		Password:        req.Password,
		IncludeClientID: includeClientID,
		ClientID:        clientID,
		Scope:           scope,
		Extra:           req.Body,
	}
	if includeClientID && req.ClientSecret != nil {
		// The secret travels in the body rather than the header.
		params.ClientSecret = req.ClientSecret
	}

	body, err := client.PrepareTokenRequest(params)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodPost
	}
	if method != http.MethodPost && method != http.MethodGet {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedMethod, req.Method)
	}

	// Clear the current token before the wire call so a failed exchange
	// never reports a stale token as authorized.
	s.SetToken(nil)

	resp, respBody, err := s.doTokenRequest(ctx, method, tokenURL, body, req.Header, auth, req.Timeout, req.ForceQuerystring)
	if err != nil {
		return nil, err
	}
	s.logf("token fetch completed with status %d", resp.StatusCode)

	resp, respBody = s.applyResponseHooks(HookAccessTokenResponse, resp, respBody)

	token, err := client.ParseTokenResponse(resp.StatusCode, respBody, scope)
	if err != nil {
		return nil, err
	}
	s.SetToken(token)
	return token, nil
}

// RefreshToken fetches a new access token using a refresh token and stores
// it on the session.
//
// refreshURL must be non-empty and https. When req.RefreshToken is empty,
// the current token's refresh token is used. The session's auto-refresh
// parameters are merged into the request body first. The refresh call never
// attaches the (expired) access token. When the response omits a refresh
// token, the one just used is re-inserted, since many providers only return
// it when it changes.
func (s *Session) RefreshToken(ctx context.Context, refreshURL string, req *RefreshTokenRequest) (*grantclient.Token, error) {
	if req == nil {
		req = &RefreshTokenRequest{}
	}
	if refreshURL == "" {
		return nil, ErrNoRefreshURL
	}
	if err := s.checkTransport(refreshURL); err != nil {
		return nil, err
	}

	s.mu.RLock()
	client := s.client
	scope := s.scope
	refreshToken := req.RefreshToken
	if refreshToken == "" {
		if t := client.Token(); t != nil {
			refreshToken = t.RefreshToken
		}
	}
	extra := url.Values{}
	mergeInto(extra, s.autoRefreshParams)
	mergeInto(extra, req.Body)
	s.mu.RUnlock()

	body, err := client.PrepareRefreshRequest(refreshToken, scope, extra)
	if err != nil {
		return nil, err
	}

	resp, respBody, err := s.doTokenRequest(ctx, http.MethodPost, refreshURL, body, req.Header, req.Auth, req.Timeout, false)
	if err != nil {
		return nil, err
	}
	s.logf("token refresh completed with status %d", resp.StatusCode)

	resp, respBody = s.applyResponseHooks(HookRefreshTokenResponse, resp, respBody)

	token, err := client.ParseTokenResponse(resp.StatusCode, respBody, scope)
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		s.logf("no new refresh token given, re-using old")
		token.RefreshToken = refreshToken
		if token.Raw != nil {
			token.Raw["refresh_token"] = refreshToken
		}
	}
	s.SetToken(token)
	return token, nil
}

// resolveCode determines the authorization code for FetchToken: the explicit
// one, the one parsed from the authorization response, or the one the grant
// client recorded earlier.
func (s *Session) resolveCode(req *TokenRequest) (string, error) {
	if req.Code != "" {
		return req.Code, nil
	}
	if req.AuthorizationResponse != "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		resp, err := s.client.ParseAuthorizationResponse(req.AuthorizationResponse, s.currentState)
		if err != nil {
			return "", err
		}
		return resp.Code, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if wc, ok := s.client.(*grantclient.AuthorizationCodeClient); ok {
		if code := wc.Code(); code != "" {
			return code, nil
		}
		return "", ErrMissingCode
	}
	return "", nil
}

// doTokenRequest issues the wire call shared by FetchToken and RefreshToken
// and returns the response with its fully read body.
func (s *Session) doTokenRequest(ctx context.Context, method, endpoint string, body url.Values, header http.Header, auth *BasicAuth, timeout time.Duration, forceQuerystring bool) (*http.Response, []byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reqBody io.Reader
	requestURL := endpoint
	if method == http.MethodGet || forceQuerystring {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("oauth2session: invalid token endpoint: %w", err)
		}
		q := u.Query()
		mergeInto(q, body)
		u.RawQuery = q.Encode()
		requestURL = u.String()
	} else {
		reqBody = strings.NewReader(body.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("oauth2session: building token request: %w", err)
	}
	if header == nil {
		header = defaultTokenHeader()
	}
	httpReq.Header = header.Clone()
	if auth != nil {
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("oauth2session: token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("oauth2session: reading token response: %w", err)
	}
	return resp, respBody, nil
}

// applyResponseHooks runs the hook chain for point over the response,
// keeping the body readable for each hook, and returns the final response
// and its body bytes.
func (s *Session) applyResponseHooks(point HookPoint, resp *http.Response, body []byte) (*http.Response, []byte) {
	resp.Body = io.NopCloser(bytes.NewReader(body))
	hooked := s.hooks.invokeResponse(point, resp)
	if hooked == nil {
		return resp, body
	}
	newBody, err := io.ReadAll(hooked.Body)
	_ = hooked.Body.Close()
	if err != nil {
		return hooked, body
	}
	return hooked, newBody
}

// mergeInto copies src entries into dst, overriding existing keys.
func mergeInto(dst, src url.Values) {
	for k, vs := range src {
		dst.Del(k)
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
