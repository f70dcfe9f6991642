package oauth2session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/AmmannChristian/go-oauth2session/grantclient"
	"github.com/AmmannChristian/go-oauth2session/internal/testutil"
)

func TestTransportInjectsToken(t *testing.T) {
	mock := testutil.NewMockOAuth2Server(t, testutil.StaticJSONResponse(`{"ok":true}`))

	s, err := New("my-client",
		WithToken(&grantclient.Token{AccessToken: "abc", TokenType: "Bearer"}),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	client := &http.Client{Transport: NewTransport(s, mock.Client().Transport)}
	resp, err := client.Get("https://mock-oauth.example.com/data")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := mock.Requests()[0].Header.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("Authorization = %q, want Bearer abc", got)
	}
}

func TestTransportDoesNotMutateOriginalRequest(t *testing.T) {
	mock := testutil.NewMockOAuth2Server(t, testutil.StaticJSONResponse(`{"ok":true}`))

	s, err := New("my-client",
		WithToken(&grantclient.Token{AccessToken: "abc", TokenType: "Bearer"}),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tr := NewTransport(s, mock.Client().Transport)
	req, err := http.NewRequest(http.MethodGet, "https://mock-oauth.example.com/data", nil)
	if err != nil {
		t.Fatalf("NewRequest() error: %v", err)
	}

	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("original request gained Authorization = %q", got)
	}
}

func TestTransportRefreshesExpiredToken(t *testing.T) {
	mock := refreshableMock(t)

	s, err := New("my-client",
		WithToken(expiredToken()),
		WithAutoRefresh("https://mock-oauth.example.com/token", nil),
		WithTokenUpdater(func(ctx context.Context, token *grantclient.Token) error { return nil }),
		WithHTTPClient(mock.Client()),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	client := &http.Client{Transport: NewTransport(s, mock.Client().Transport)}
	resp, err := client.Get(mockResourceURL)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	reqs := mock.Requests()
	if len(reqs) != 2 {
		t.Fatalf("request count = %d, want 2 (refresh + request)", len(reqs))
	}
	if got := reqs[1].Header.Get("Authorization"); got != "Bearer refreshed-access" {
		t.Errorf("Authorization = %q, want Bearer refreshed-access", got)
	}
}

func TestTransportFailsWithoutToken(t *testing.T) {
	mock := testutil.NewMockOAuth2Server(t, testutil.StaticJSONResponse(`{"ok":true}`))

	s, err := New("my-client")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tr := NewTransport(s, mock.Client().Transport)
	req, _ := http.NewRequest(http.MethodGet, "https://mock-oauth.example.com/data", nil)
	_, err = tr.RoundTrip(req)
	if !errors.Is(err, grantclient.ErrMissingToken) {
		t.Fatalf("error = %v, want ErrMissingToken", err)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("request count = %d, want 0", mock.RequestCount())
	}
}

func TestHTTPClientCarriesTimeout(t *testing.T) {
	s, err := New("my-client", WithHTTPClient(&http.Client{Timeout: 7 * time.Second}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	c := s.HTTPClient()
	if c.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", c.Timeout)
	}
	if _, ok := c.Transport.(*Transport); !ok {
		t.Errorf("Transport = %T, want *Transport", c.Transport)
	}
}

func TestTokenSource(t *testing.T) {
	s, err := New("my-client",
		WithToken(&grantclient.Token{AccessToken: "abc", TokenType: "Bearer", RefreshToken: "r1"}),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ts := s.TokenSource(context.Background())
	token, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if token.AccessToken != "abc" {
		t.Errorf("AccessToken = %q, want abc", token.AccessToken)
	}
	if token.RefreshToken != "r1" {
		t.Errorf("RefreshToken = %q, want r1", token.RefreshToken)
	}
	if token.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", token.TokenType)
	}
}

func TestTokenSourceRefreshes(t *testing.T) {
	mock := refreshableMock(t)

	s, err := New("my-client",
		WithToken(expiredToken()),
		WithAutoRefresh("https://mock-oauth.example.com/token", nil),
		WithTokenUpdater(func(ctx context.Context, token *grantclient.Token) error { return nil }),
		WithHTTPClient(mock.Client()),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	token, err := s.TokenSource(context.Background()).Token()
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if token.AccessToken != "refreshed-access" {
		t.Errorf("AccessToken = %q, want refreshed-access", token.AccessToken)
	}
}
