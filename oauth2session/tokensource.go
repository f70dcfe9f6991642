package oauth2session

import (
	"context"

	"golang.org/x/oauth2"
)

// sessionTokenSource adapts a Session to oauth2.TokenSource.
type sessionTokenSource struct {
	ctx     context.Context
	session *Session
}

// TokenSource returns an oauth2.TokenSource backed by the session, so the
// session can feed any golang.org/x/oauth2 consumer. The context is used
// for refresh calls triggered by Token.
func (s *Session) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &sessionTokenSource{ctx: ctx, session: s}
}

// Token returns the session's current token, refreshing it first when
// expired. Must be safe for concurrent use; the session's single-flight
// refresh provides that.
func (ts *sessionTokenSource) Token() (*oauth2.Token, error) {
	if _, err := ts.session.BearerToken(ts.ctx); err != nil {
		return nil, err
	}
	return ts.session.Token().OAuth2Token(), nil
}
