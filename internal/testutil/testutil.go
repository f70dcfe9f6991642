package testutil

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// RoundTripFunc allows inlining http.RoundTripper implementations.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls the underlying function.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// MockOAuth2Server simulates an OAuth2 token endpoint without real sockets.
// It records every request and its parsed form body, and serves responses
// through a custom RoundTripper, so sessions under test talk to it via an
// injected http.Client.
type MockOAuth2Server struct {
	URL string

	mu       sync.Mutex
	requests []*http.Request
	bodies   []url.Values

	handler RoundTripFunc
}

// NewMockOAuth2Server builds a mock OAuth2 endpoint backed by an in-memory
// RoundTripper. If handler is nil, it returns a default successful token
// response.
func NewMockOAuth2Server(tb testing.TB, handler RoundTripFunc) *MockOAuth2Server {
	tb.Helper()

	if handler == nil {
		handler = StaticJSONResponse(`{
			"access_token": "mock-access-token",
			"token_type": "Bearer",
			"expires_in": 3600
		}`)
	}

	return &MockOAuth2Server{
		URL:     "https://mock-oauth.example.com/token",
		handler: handler,
	}
}

// Client returns an http.Client that routes every request through the mock.
func (m *MockOAuth2Server) Client() *http.Client {
	return &http.Client{Transport: RoundTripFunc(m.roundTrip)}
}

func (m *MockOAuth2Server) roundTrip(req *http.Request) (*http.Response, error) {
	var form url.Values
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err == nil {
			form, _ = url.ParseQuery(string(b))
			req.Body = io.NopCloser(strings.NewReader(string(b)))
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, form)
	m.mu.Unlock()

	return m.handler(req)
}

// Requests returns a snapshot of the recorded requests.
func (m *MockOAuth2Server) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*http.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Bodies returns a snapshot of the recorded parsed form bodies, index
// aligned with Requests.
func (m *MockOAuth2Server) Bodies() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]url.Values, len(m.bodies))
	copy(out, m.bodies)
	return out
}

// RequestCount returns the number of recorded requests.
func (m *MockOAuth2Server) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// StaticJSONResponse returns a RoundTripper that always responds 200 with
// the provided JSON body.
func StaticJSONResponse(body string) RoundTripFunc {
	return JSONResponse(http.StatusOK, body)
}

// JSONResponse returns a RoundTripper that always responds with the given
// status and JSON body.
func JSONResponse(status int, body string) RoundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: status,
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	}
}

// PathSwitchResponse dispatches on the request path, so one mock can serve
// both a token endpoint and a protected resource.
func PathSwitchResponse(routes map[string]RoundTripFunc, fallback RoundTripFunc) RoundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		if handler, ok := routes[req.URL.Path]; ok {
			return handler(req)
		}
		return fallback(req)
	}
}
