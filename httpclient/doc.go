// Package httpclient offers HTTP client construction helpers with OAuth2 session authentication and TLS/mTLS options.
//
// It provides a fluent Builder that creates an http.Client whose requests ride an oauth2session.Session's
// token lifecycle, with configurable TLS (custom CA, mTLS, insecure for tests), timeouts, base transports,
// and redirect handling.
//
// # Features
//
//   - Fluent builder for http.Client with optional session token injection
//   - TLS 1.2+ by default, with custom CA/mTLS and optional InsecureSkipVerify
//   - Custom timeouts, base transport override, and redirect disabling
//
// # Quick Start
//
//	session, err := oauth2session.New("client-id",
//	    oauth2session.WithClient(grantclient.NewClientCredentials("client-id")),
//	    oauth2session.WithAutoRefresh("https://auth.example.com/oauth/v2/token", nil),
//	    oauth2session.WithTokenUpdater(tokenstore.Updater(store)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := httpclient.NewBuilder().
//	    WithSession(session).
//	    WithTLS("/path/to/ca.crt", "", "").
//	    WithTimeout(60 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get("https://api.example.com/data")
//
// All components are safe for concurrent use.
package httpclient
