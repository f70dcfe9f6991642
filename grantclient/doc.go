// Package grantclient implements the grant-type-specific half of an OAuth2
// client: token records, authorization URL construction, token request
// bodies, response parsing, and bearer token attachment.
//
// The Client interface is polymorphic over the four core RFC 6749 grants:
//
//   - AuthorizationCodeClient: Authorization Code Grant (default)
//   - PasswordClient: Resource Owner Password Credentials Grant
//   - ClientCredentialsClient: Client Credentials Grant
//   - ImplicitClient: Implicit Grant (token from the URI fragment)
//
// # Features
//
//   - Token record preserving every raw response key, with expiry tracking
//   - Expiry derivation from expires_in, expires_at, or a JWT exp claim
//   - RFC 6749 error documents surfaced as *RemoteError
//   - State verification on authorization callbacks
//   - Bridge to golang.org/x/oauth2 tokens via Token.OAuth2Token
//
// Clients are not safe for concurrent use on their own; the owning session
// serializes access. Most applications use this package only indirectly
// through oauth2session.
package grantclient
