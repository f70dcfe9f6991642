package grantclient

import (
	"errors"
	"fmt"
	"net/url"
)

// AuthorizationCodeClient implements the authorization code grant
// (RFC 6749 section 4.1), the right choice for hosted web applications.
// It is the default grant type for sessions.
type AuthorizationCodeClient struct {
	baseClient

	code string
}

// NewAuthorizationCode creates an authorization code grant client.
func NewAuthorizationCode(clientID string) *AuthorizationCodeClient {
	return &AuthorizationCodeClient{baseClient: baseClient{clientID: clientID}}
}

// Code returns the authorization code recorded from the last parsed
// authorization response, empty if none.
func (c *AuthorizationCodeClient) Code() string { return c.code }

// AuthorizationURL builds the user redirect URL with response_type=code.
func (c *AuthorizationCodeClient) AuthorizationURL(endpoint, redirectURI string, scope []string, state string, extra url.Values) (string, error) {
	return buildAuthorizationURL(endpoint, "code", c.clientID, redirectURI, scope, state, extra)
}

// ParseAuthorizationResponse extracts the authorization code from the
// callback URL, verifying the echoed state. The code is recorded on the
// client so a later token fetch can discover it.
func (c *AuthorizationCodeClient) ParseAuthorizationResponse(callbackURL, expectedState string) (*AuthorizationResponse, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("grantclient: invalid authorization response: %w", err)
	}
	q := u.Query()

	if errCode := q.Get("error"); errCode != "" {
		return nil, &RemoteError{
			Code:        errCode,
			Description: q.Get("error_description"),
			URI:         q.Get("error_uri"),
		}
	}

	code := q.Get("code")
	if code == "" {
		return nil, errors.New("grantclient: authorization response is missing code")
	}
	state := q.Get("state")
	if err := verifyState(state, expectedState); err != nil {
		return nil, err
	}

	c.code = code
	return &AuthorizationResponse{Code: code, State: state}, nil
}

// PrepareTokenRequest builds the authorization_code exchange body.
func (c *AuthorizationCodeClient) PrepareTokenRequest(params TokenRequestParams) (url.Values, error) {
	if params.Code == "" {
		return nil, errors.New("grantclient: authorization code is required")
	}

	body := url.Values{}
	body.Set("grant_type", "authorization_code")
	body.Set("code", params.Code)
	if params.RedirectURI != "" {
		body.Set("redirect_uri", params.RedirectURI)
	}
	if params.IncludeClientID && params.ClientID != "" {
		body.Set("client_id", params.ClientID)
	}
	if params.ClientSecret != nil {
		body.Set("client_secret", *params.ClientSecret)
	}
	mergeValues(body, params.Extra)
	return body, nil
}
