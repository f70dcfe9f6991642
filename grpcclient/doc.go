// Package grpcclient carries an OAuth2 session's bearer tokens into gRPC.
//
// It provides unary and stream client interceptors that inject
// "authorization: Bearer <token>" metadata from any TokenProvider
// (oauth2session.Session implements it), plus a fluent Builder for
// constructing authenticated, TLS-enabled client connections.
//
// # Quick Start
//
//	conn, err := grpcclient.NewBuilder().
//	    WithAddress("server.example.com:9090").
//	    WithTokenProvider(session).
//	    WithTLS("/path/to/ca.crt", "", "", "").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Expired tokens are refreshed through the session before the RPC is sent;
// a refresh without a configured token updater aborts the RPC with
// *oauth2session.TokenUpdatedError so the new token cannot be lost.
package grpcclient
