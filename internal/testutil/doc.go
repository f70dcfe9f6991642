// Package testutil provides test helpers for go-oauth2session packages.
//
// It stubs OAuth2 token endpoints and protected resources without real
// sockets: MockOAuth2Server records every request and parsed form body and
// answers through an in-memory RoundTripper injected into the session's
// http.Client.
//
// # Utilities
//
//   - MockOAuth2Server: stub token endpoints and capture requests and bodies
//   - RoundTripFunc: inline http.RoundTripper implementations
//   - StaticJSONResponse / JSONResponse / PathSwitchResponse: canned replies
package testutil
