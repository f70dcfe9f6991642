package oauth2session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/AmmannChristian/go-oauth2session/grantclient"
)

func TestNewDefaults(t *testing.T) {
	s, err := New("my-client")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, ok := s.Client().(*grantclient.AuthorizationCodeClient); !ok {
		t.Errorf("default client = %T, want *grantclient.AuthorizationCodeClient", s.Client())
	}
	if s.ClientID() != "my-client" {
		t.Errorf("ClientID() = %q, want my-client", s.ClientID())
	}
	if s.Authorized() {
		t.Error("Authorized() = true with no token")
	}
	if s.httpClient == nil || s.httpClient.Timeout != 30*time.Second {
		t.Errorf("default http client timeout = %v, want 30s", s.httpClient.Timeout)
	}
}

func TestNewTokenUpdaterRequiresAutoRefresh(t *testing.T) {
	_, err := New("my-client", WithTokenUpdater(func(ctx context.Context, token *grantclient.Token) error {
		return nil
	}))
	if err == nil {
		t.Fatal("expected error: updater without auto-refresh endpoint")
	}
}

func TestSessionTokenAccessors(t *testing.T) {
	s, err := New("my-client", WithToken(&grantclient.Token{
		AccessToken: "abc",
		TokenType:   "Bearer",
	}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if !s.Authorized() {
		t.Error("Authorized() = false with a seeded token")
	}
	if s.AccessToken() != "abc" {
		t.Errorf("AccessToken() = %q, want abc", s.AccessToken())
	}

	s.SetAccessToken("def")
	if s.Token().AccessToken != "def" {
		t.Errorf("token access token = %q after SetAccessToken, want def", s.Token().AccessToken)
	}

	s.ClearAccessToken()
	if s.Authorized() {
		t.Error("Authorized() = true after ClearAccessToken")
	}

	s.SetClientID("other")
	if s.ClientID() != "other" {
		t.Errorf("ClientID() = %q, want other", s.ClientID())
	}
	s.ClearClientID()
	if s.ClientID() != "" {
		t.Errorf("ClientID() = %q after clear, want empty", s.ClientID())
	}
}

func TestNewStateGenerated(t *testing.T) {
	s, err := New("my-client")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	first := s.NewState()
	second := s.NewState()
	if first == "" || second == "" {
		t.Fatal("generated state is empty")
	}
	if first == second {
		t.Errorf("consecutive generated states are identical: %q", first)
	}
}

func TestNewStateFixed(t *testing.T) {
	s, err := New("my-client", WithState("fixed-state"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := s.NewState(); got != "fixed-state" {
		t.Errorf("NewState() = %q, want fixed-state", got)
	}
	if got := s.NewState(); got != "fixed-state" {
		t.Errorf("NewState() second call = %q, want fixed-state", got)
	}
}

func TestNewStateCustomGenerator(t *testing.T) {
	n := 0
	s, err := New("my-client", WithStateGenerator(func() string {
		n++
		return "gen"
	}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := s.NewState(); got != "gen" {
		t.Errorf("NewState() = %q, want gen", got)
	}
	if n != 1 {
		t.Errorf("generator called %d times, want 1", n)
	}
}

func TestAuthorizationURL(t *testing.T) {
	s, err := New("my-client",
		WithRedirectURI("https://app.example.com/callback"),
		WithScope("read", "write"),
		WithState("s1"),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	rawurl, state, err := s.AuthorizationURL("https://auth.example.com/authorize", "", url.Values{"prompt": {"consent"}})
	if err != nil {
		t.Fatalf("AuthorizationURL() error: %v", err)
	}
	if state != "s1" {
		t.Errorf("state = %q, want s1", state)
	}

	u, err := url.Parse(rawurl)
	if err != nil {
		t.Fatalf("returned URL does not parse: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "my-client" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://app.example.com/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("scope") != "read write" {
		t.Errorf("scope = %q", q.Get("scope"))
	}
	if q.Get("state") != "s1" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("prompt") != "consent" {
		t.Errorf("prompt = %q", q.Get("prompt"))
	}
}

func TestAuthorizationURLExplicitStateOverrides(t *testing.T) {
	s, err := New("my-client")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, state, err := s.AuthorizationURL("https://auth.example.com/authorize", "caller-state", nil)
	if err != nil {
		t.Fatalf("AuthorizationURL() error: %v", err)
	}
	if state != "caller-state" {
		t.Errorf("state = %q, want caller-state", state)
	}
	if s.currentState != "caller-state" {
		t.Errorf("recorded state = %q, want caller-state", s.currentState)
	}
}

func TestTokenFromFragment(t *testing.T) {
	s, err := New("my-client", WithClient(grantclient.NewImplicit("my-client")), WithState("s1"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	s.NewState()

	token, err := s.TokenFromFragment("https://app.example.com/callback#access_token=abc&token_type=Bearer&state=s1")
	if err != nil {
		t.Fatalf("TokenFromFragment() error: %v", err)
	}
	if token.AccessToken != "abc" {
		t.Errorf("AccessToken = %q, want abc", token.AccessToken)
	}
	if s.AccessToken() != "abc" {
		t.Error("token was not stored on the session")
	}
}

func TestTokenFromFragmentStateMismatch(t *testing.T) {
	s, err := New("my-client", WithClient(grantclient.NewImplicit("my-client")), WithState("s1"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	s.NewState()

	_, err = s.TokenFromFragment("https://app.example.com/callback#access_token=abc&state=evil")
	if !errors.Is(err, grantclient.ErrStateMismatch) {
		t.Fatalf("error = %v, want ErrStateMismatch", err)
	}
}

func TestCheckTransport(t *testing.T) {
	s, err := New("my-client")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := s.checkTransport("https://api.example.com"); err != nil {
		t.Errorf("https rejected: %v", err)
	}

	err = s.checkTransport("http://api.example.com")
	var insecureErr *InsecureTransportError
	if !errors.As(err, &insecureErr) {
		t.Fatalf("error = %v, want *InsecureTransportError", err)
	}
	if !strings.Contains(insecureErr.Error(), "http://api.example.com") {
		t.Errorf("error message %q does not name the URL", insecureErr.Error())
	}

	insecure, err := New("my-client", WithInsecureTransportAllowed())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := insecure.checkTransport("http://localhost:8080"); err != nil {
		t.Errorf("insecure transport still rejected: %v", err)
	}
}

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.lines = append(l.lines, format)
}

func TestWithLogger(t *testing.T) {
	logger := &recordingLogger{}
	s, err := New("my-client", WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	s.NewState()
	if len(logger.lines) == 0 {
		t.Error("expected state generation to be logged")
	}
}
