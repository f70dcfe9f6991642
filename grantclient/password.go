package grantclient

import (
	"errors"
	"net/url"
	"strings"
)

// PasswordClient implements the resource owner password credentials grant
// (RFC 6749 section 4.3), kept for legacy first-party applications that
// collect the user's credentials directly.
type PasswordClient struct {
	baseClient
}

// NewPassword creates a password grant client.
func NewPassword(clientID string) *PasswordClient {
	return &PasswordClient{baseClient: baseClient{clientID: clientID}}
}

// AuthorizationURL is not part of the password grant; there is no user
// redirect step.
func (c *PasswordClient) AuthorizationURL(string, string, []string, string, url.Values) (string, error) {
	return "", errGrantUnsupported("password", "authorization URL")
}

// ParseAuthorizationResponse is not part of the password grant.
func (c *PasswordClient) ParseAuthorizationResponse(string, string) (*AuthorizationResponse, error) {
	return nil, errGrantUnsupported("password", "authorization response parsing")
}

// PrepareTokenRequest builds the password grant body. The RFC places the
// resource owner credentials in the body, never in an Authorization header.
func (c *PasswordClient) PrepareTokenRequest(params TokenRequestParams) (url.Values, error) {
	if params.Username == "" {
		return nil, errors.New("grantclient: username is required for the password grant")
	}
	if params.Password == "" {
		return nil, errors.New("grantclient: password is required for the password grant")
	}

	body := url.Values{}
	body.Set("grant_type", "password")
	body.Set("username", params.Username)
	body.Set("password", params.Password)
	if len(params.Scope) > 0 {
		body.Set("scope", strings.Join(params.Scope, " "))
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
