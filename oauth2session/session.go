package oauth2session

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/AmmannChristian/go-oauth2session/grantclient"
)

// Logger is an interface for optional logging in Session.
// Implementations can log token lifecycle events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenUpdater persists a freshly refreshed token. It may perform I/O; the
// session awaits its completion before retrying the original request.
type TokenUpdater func(ctx context.Context, token *grantclient.Token) error

// DefaultStateGenerator produces the CSRF state used when the caller does
// not supply one.
var DefaultStateGenerator = func() string { return uuid.NewString() }

// Session is an OAuth2-aware HTTP client session. It owns a grant client
// and a token, transparently authenticates requests issued through Do,
// refreshes expired tokens, and accommodates non-compliant providers via
// compliance hooks.
//
// A Session is safe for concurrent use. The refresh path is single-flight:
// concurrent requests that observe an expired token share one refresh call.
type Session struct {
	httpClient *http.Client
	logger     Logger

	mu           sync.RWMutex
	client       grantclient.Client
	scope        []string
	redirectURI  string
	fixedState   string
	stateGen     func() string
	currentState string

	autoRefreshURL    string
	autoRefreshParams url.Values
	tokenUpdater      TokenUpdater

	allowInsecure bool
	hooks         hookRegistry
	refreshGroup  singleflight.Group
}

// Option is a functional option for configuring Session.
type Option func(*Session)

// WithClient sets the grant client. Default is an AuthorizationCodeClient
// built from the client id passed to New.
func WithClient(c grantclient.Client) Option {
	return func(s *Session) { s.client = c }
}

// WithScope sets the scopes requested during authorization and exchanges.
func WithScope(scope ...string) Option {
	return func(s *Session) { s.scope = scope }
}

// WithRedirectURI sets the callback URI registered with the provider.
func WithRedirectURI(uri string) Option {
	return func(s *Session) { s.redirectURI = uri }
}

// WithToken seeds the session with a previously obtained token.
func WithToken(t *grantclient.Token) Option {
	return func(s *Session) { s.client.SetToken(t) }
}

// WithState fixes the CSRF state to a literal value. The same value is
// reused for every authorization round-trip.
func WithState(state string) Option {
	return func(s *Session) {
		s.fixedState = state
		s.stateGen = nil
	}
}

// WithStateGenerator sets the function used to mint a fresh CSRF state for
// each authorization round-trip. Default is DefaultStateGenerator.
func WithStateGenerator(fn func() string) Option {
	return func(s *Session) {
		s.stateGen = fn
		s.fixedState = ""
	}
}

// WithAutoRefresh configures the refresh endpoint used when a request hits
// an expired token, plus extra fixed parameters merged into every refresh
// request.
func WithAutoRefresh(refreshURL string, extraParams url.Values) Option {
	return func(s *Session) {
		s.autoRefreshURL = refreshURL
		s.autoRefreshParams = extraParams
	}
}

// WithTokenUpdater sets the persistence callback invoked with every
// refreshed token. Requires WithAutoRefresh; New fails otherwise. Without an
// updater, an automatic refresh surfaces *TokenUpdatedError so the caller
// cannot miss the new token.
func WithTokenUpdater(fn TokenUpdater) Option {
	return func(s *Session) { s.tokenUpdater = fn }
}

// WithHTTPClient sets the underlying HTTP client. Default is a client with
// a 30 second timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.httpClient = c }
}

// WithInsecureTransportAllowed disables the https requirement on OAuth
// endpoints and protected requests. Only for local development against a
// loopback provider.
func WithInsecureTransportAllowed() Option {
	return func(s *Session) { s.allowInsecure = true }
}

// WithLogger sets a custom logger for token lifecycle events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithLoggingEnabled enables logging using the default Go log package.
// This is a convenience option that sets the logger to log.Default().
func WithLoggingEnabled() Option {
	return func(s *Session) { s.logger = log.Default() }
}

// New creates a Session for the given client id.
//
// The default configuration uses the authorization code grant, a generated
// CSRF state per round-trip, and a 30 second HTTP timeout.
func New(clientID string, opts ...Option) (*Session, error) {
	s := &Session{
		client:   grantclient.NewAuthorizationCode(clientID),
		stateGen: DefaultStateGenerator,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.tokenUpdater != nil && s.autoRefreshURL == "" {
		return nil, errors.New("oauth2session: WithTokenUpdater requires WithAutoRefresh")
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return s, nil
}

// Client returns the owned grant client. Callers must not mutate it while
// requests are in flight; use the session accessors instead.
func (s *Session) Client() grantclient.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Token returns the current token, nil if none is held.
func (s *Session) Token() *grantclient.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client.Token()
}

// SetToken replaces the token wholesale and resynchronizes the grant
// client's derived attributes.
func (s *Session) SetToken(t *grantclient.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client.SetToken(t)
}

// AccessToken returns the current access token, empty if none.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client.AccessToken()
}

// SetAccessToken overwrites the access token on the held token.
func (s *Session) SetAccessToken(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client.SetAccessToken(v)
}

// ClearAccessToken removes the access token, leaving the rest of the token
// in place.
func (s *Session) ClearAccessToken() {
	s.SetAccessToken("")
}

// ClientID returns the grant client's client id.
func (s *Session) ClientID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client.ClientID()
}

// SetClientID replaces the grant client's client id.
func (s *Session) SetClientID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client.SetClientID(id)
}

// ClearClientID removes the client id.
func (s *Session) ClearClientID() {
	s.SetClientID("")
}

// Authorized reports whether the session holds an access token. When true,
// protected requests can reasonably be expected to succeed; when false, the
// user must complete the authorization dance first.
func (s *Session) Authorized() bool {
	return s.AccessToken() != ""
}

// NewState materializes a fresh CSRF state: the fixed literal when one was
// configured, otherwise a generated value. The materialized state is
// recorded and later verified against the authorization callback.
func (s *Session) NewState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newStateLocked()
}

func (s *Session) newStateLocked() string {
	if s.stateGen != nil {
		s.currentState = s.stateGen()
		s.logf("generated new state %s", s.currentState)
	} else {
		s.currentState = s.fixedState
		s.logf("re-using previously supplied state %s", s.currentState)
	}
	return s.currentState
}

// AuthorizationURL forms the authorization redirect URL for the configured
// grant. state overrides the session's state when non-empty; otherwise a
// state is materialized. Extra parameters are appended to the URL. Returns
// the URL and the state the caller must expect back on the callback.
func (s *Session) AuthorizationURL(endpoint, state string, extra url.Values) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state == "" {
		state = s.newStateLocked()
	} else {
		s.currentState = state
	}

	u, err := s.client.AuthorizationURL(endpoint, s.redirectURI, s.scope, state, extra)
	if err != nil {
		return "", "", err
	}
	return u, state, nil
}

// TokenFromFragment parses a token out of an authorization callback URL
// fragment, as delivered by the implicit grant, stores it, and returns it.
func (s *Session) TokenFromFragment(callbackURL string) (*grantclient.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.client.ParseAuthorizationResponse(callbackURL, s.currentState)
	if err != nil {
		return nil, err
	}
	if resp.Token == nil {
		return nil, errors.New("oauth2session: authorization response carries no token fragment")
	}
	s.client.SetToken(resp.Token)
	return resp.Token, nil
}

// RegisterComplianceHook registers a hook for request/response tweaking.
//
// Available hook points:
//
//	HookAccessTokenResponse (ResponseHook): invoked before token parsing
//	HookRefreshTokenResponse (ResponseHook): invoked before refresh parsing
//	HookProtectedRequest (RequestHook): invoked before making a request
//
// Hooks run in registration order. Register hooks before issuing concurrent
// traffic; registration is not synchronized with in-flight requests.
func (s *Session) RegisterComplianceHook(point HookPoint, hook any) error {
	return s.hooks.register(point, hook)
}

// checkTransport rejects non-https URLs unless insecure transport was
// explicitly allowed.
func (s *Session) checkTransport(rawurl string) error {
	if s.allowInsecure {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(rawurl), "https://") {
		return nil
	}
	return &InsecureTransportError{URL: rawurl}
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf("oauth2session: "+format, args...)
	}
}
