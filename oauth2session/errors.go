package oauth2session

import (
	"errors"
	"fmt"

	"github.com/AmmannChristian/go-oauth2session/grantclient"
)

var (
	// ErrMissingCode is returned by FetchToken when the authorization code
	// grant has neither a code nor an authorization response to parse one
	// from.
	ErrMissingCode = errors.New("oauth2session: supply either Code or AuthorizationResponse")

	// ErrMissingUsername is returned by FetchToken when the password grant
	// is used without a username.
	ErrMissingUsername = errors.New("oauth2session: the password grant requires both Username and Password")

	// ErrMissingPassword is returned by FetchToken when a username was
	// supplied but the password was not.
	ErrMissingPassword = errors.New("oauth2session: Username was supplied but Password was not")

	// ErrNoRefreshURL is returned when a refresh is attempted without a
	// refresh endpoint.
	ErrNoRefreshURL = errors.New("oauth2session: no token endpoint set for refresh")

	// ErrUnsupportedMethod is returned by FetchToken for methods other than
	// POST and GET.
	ErrUnsupportedMethod = errors.New("oauth2session: token request method must be POST or GET")
)

// InsecureTransportError reports an OAuth-relevant URL that does not use
// https. It is raised before any network call is made.
type InsecureTransportError struct {
	URL string
}

func (e *InsecureTransportError) Error() string {
	return fmt.Sprintf("oauth2session: insecure transport for %q: OAuth2 requires https", e.URL)
}

// TokenUpdatedError is a control signal, not a failure: a token refresh
// succeeded but no token updater is configured, so the caller must persist
// the new token and re-issue the request. Detect it with errors.As and read
// the refreshed token from Token.
type TokenUpdatedError struct {
	Token *grantclient.Token
}

func (e *TokenUpdatedError) Error() string {
	return "oauth2session: token refreshed but no token updater configured; persist the new token and retry"
}
