package grantclient

import (
	"net/url"
	"strings"
)

// ClientCredentialsClient implements the client credentials grant
// (RFC 6749 section 4.4) for machine-to-machine access with no resource
// owner involved.
type ClientCredentialsClient struct {
	baseClient
}

// NewClientCredentials creates a client credentials grant client.
func NewClientCredentials(clientID string) *ClientCredentialsClient {
	return &ClientCredentialsClient{baseClient: baseClient{clientID: clientID}}
}

// AuthorizationURL is not part of the client credentials grant.
func (c *ClientCredentialsClient) AuthorizationURL(string, string, []string, string, url.Values) (string, error) {
	return "", errGrantUnsupported("client credentials", "authorization URL")
}

// ParseAuthorizationResponse is not part of the client credentials grant.
func (c *ClientCredentialsClient) ParseAuthorizationResponse(string, string) (*AuthorizationResponse, error) {
	return nil, errGrantUnsupported("client credentials", "authorization response parsing")
}

// PrepareTokenRequest builds the client_credentials body. The client usually
// authenticates through the Basic header the session synthesizes, so the
// body stays minimal unless IncludeClientID forces body credentials.
func (c *ClientCredentialsClient) PrepareTokenRequest(params TokenRequestParams) (url.Values, error) {
	body := url.Values{}
	body.Set("grant_type", "client_credentials")
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
