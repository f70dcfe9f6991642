package grantclient

import (
	"fmt"
	"net/url"
)

// ImplicitClient implements the implicit grant (RFC 6749 section 4.2), where
// the token is returned directly in the redirect URI fragment. Only useful
// when driving a user agent that can observe fragments; there is no token
// endpoint exchange and no refresh token.
type ImplicitClient struct {
	baseClient
}

// NewImplicit creates an implicit grant client.
func NewImplicit(clientID string) *ImplicitClient {
	return &ImplicitClient{baseClient: baseClient{clientID: clientID}}
}

// AuthorizationURL builds the user redirect URL with response_type=token.
func (c *ImplicitClient) AuthorizationURL(endpoint, redirectURI string, scope []string, state string, extra url.Values) (string, error) {
	return buildAuthorizationURL(endpoint, "token", c.clientID, redirectURI, scope, state, extra)
}

// ParseAuthorizationResponse parses the token out of the callback URL
// fragment, verifying the echoed state.
func (c *ImplicitClient) ParseAuthorizationResponse(callbackURL, expectedState string) (*AuthorizationResponse, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("grantclient: invalid authorization response: %w", err)
	}
	frag, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return nil, fmt.Errorf("grantclient: invalid authorization response fragment: %w", err)
	}

	if errCode := frag.Get("error"); errCode != "" {
		return nil, &RemoteError{
			Code:        errCode,
			Description: frag.Get("error_description"),
			URI:         frag.Get("error_uri"),
		}
	}

	state := frag.Get("state")
	if err := verifyState(state, expectedState); err != nil {
		return nil, err
	}

	raw := make(map[string]any, len(frag))
	for k := range frag {
		if k == "state" {
			continue
		}
		raw[k] = frag.Get(k)
	}
	token, err := tokenFromRaw(raw)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("grantclient: authorization response fragment is missing access_token")
	}

	return &AuthorizationResponse{State: state, Token: token}, nil
}

// PrepareTokenRequest is not part of the implicit grant; the token arrives
// in the fragment instead of through a token endpoint.
func (c *ImplicitClient) PrepareTokenRequest(TokenRequestParams) (url.Values, error) {
	return nil, errGrantUnsupported("implicit", "token request")
}
