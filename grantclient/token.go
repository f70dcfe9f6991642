package grantclient

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Token is an OAuth2 token record as returned by a token endpoint.
//
// A Token is owned by the session that obtained it and is replaced wholesale
// on every successful exchange or refresh. Raw carries every key the server
// returned, including non-standard ones, so compliance-sensitive callers can
// still reach provider extensions.
type Token struct {
	// AccessToken is the credential presented on protected requests.
	AccessToken string

	// TokenType is the token scheme, typically "Bearer".
	TokenType string

	// RefreshToken is the long-lived credential used to obtain new access
	// tokens. Empty if the server did not issue one.
	RefreshToken string

	// ExpiresIn is the lifetime in seconds reported by the server, if any.
	ExpiresIn int64

	// Expiry is the absolute expiration time. Zero means the token does not
	// report an expiry and is treated as non-expiring.
	Expiry time.Time

	// Scope is the space-separated scope granted by the server, if reported.
	Scope string

	// Raw holds the full decoded response body.
	Raw map[string]any
}

// Valid reports whether the token has a non-empty access token that has not
// expired.
func (t *Token) Valid() bool {
	return t != nil && t.AccessToken != "" && !t.Expired()
}

// Expired reports whether the token's expiry, if known, has passed.
func (t *Token) Expired() bool {
	if t == nil || t.Expiry.IsZero() {
		return false
	}
	return !time.Now().Before(t.Expiry)
}

// ScopeList returns the granted scope split into individual values.
func (t *Token) ScopeList() []string {
	if t == nil {
		return nil
	}
	return strings.Fields(t.Scope)
}

// Extra returns the raw response value for key, or nil if absent.
func (t *Token) Extra(key string) any {
	if t == nil || t.Raw == nil {
		return nil
	}
	return t.Raw[key]
}

// OAuth2Token converts the token into a golang.org/x/oauth2 Token so sessions
// can feed any consumer of that ecosystem. Raw values are preserved as extras.
func (t *Token) OAuth2Token() *oauth2.Token {
	if t == nil {
		return nil
	}
	ot := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
	if len(t.Raw) == 0 {
		return ot
	}
	extra := make(map[string]any, len(t.Raw))
	for k, v := range t.Raw {
		extra[k] = v
	}
	return ot.WithExtra(extra)
}

// MarshalJSON encodes the token as the flat key/value document a token
// endpoint would return, so stored tokens survive a round-trip unchanged.
func (t *Token) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(t.Raw)+4)
	for k, v := range t.Raw {
		m[k] = v
	}
	if t.AccessToken != "" {
		m["access_token"] = t.AccessToken
	}
	if t.TokenType != "" {
		m["token_type"] = t.TokenType
	}
	if t.RefreshToken != "" {
		m["refresh_token"] = t.RefreshToken
	}
	if t.Scope != "" {
		m["scope"] = t.Scope
	}
	if !t.Expiry.IsZero() {
		m["expires_at"] = t.Expiry.Unix()
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a flat token document, deriving Expiry from
// expires_at or expires_in as available.
func (t *Token) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tok, err := tokenFromRaw(raw)
	if err != nil {
		return err
	}
	*t = *tok
	return nil
}

// tokenFromRaw builds a Token from a decoded response document.
// Returns an error only for values that cannot be coerced.
func tokenFromRaw(raw map[string]any) (*Token, error) {
	t := &Token{Raw: raw}
	t.AccessToken, _ = raw["access_token"].(string)
	t.TokenType, _ = raw["token_type"].(string)
	t.RefreshToken, _ = raw["refresh_token"].(string)

	switch scope := raw["scope"].(type) {
	case string:
		t.Scope = scope
	case []any:
		parts := make([]string, 0, len(scope))
		for _, v := range scope {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("grantclient: invalid scope element %T", v)
			}
			parts = append(parts, s)
		}
		t.Scope = strings.Join(parts, " ")
	}

	if v, ok := raw["expires_in"]; ok {
		n, err := coerceInt64(v)
		if err != nil {
			return nil, fmt.Errorf("grantclient: invalid expires_in: %w", err)
		}
		t.ExpiresIn = n
	}
	if v, ok := raw["expires_at"]; ok {
		n, err := coerceInt64(v)
		if err != nil {
			return nil, fmt.Errorf("grantclient: invalid expires_at: %w", err)
		}
		t.Expiry = time.Unix(n, 0)
	} else if t.ExpiresIn != 0 {
		t.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	} else if exp, ok := jwtExpiry(t.AccessToken); ok {
		// Some servers omit expires_in but issue JWT access tokens; use the
		// unverified exp claim so the expiry signal still works.
		t.Expiry = exp
	}

	return t, nil
}

// coerceInt64 accepts the number encodings seen in the wild: JSON numbers and
// numeric strings.
func coerceInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, fmt.Errorf("unsupported number type %T", v)
}

// jwtExpiry extracts the exp claim from a JWT access token without verifying
// the signature. The expiry is advisory only; it is never used to accept a
// token, only to decide when to refresh.
func jwtExpiry(accessToken string) (time.Time, bool) {
	if strings.Count(accessToken, ".") != 2 {
		return time.Time{}, false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// parseTokenBody decodes a token endpoint response body. JSON is the primary
// encoding; form-encoded bodies are accepted as a fallback because some older
// providers still return them.
func parseTokenBody(body []byte) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		return raw, nil
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	raw := make(map[string]any, len(values))
	for k := range values {
		raw[k] = values.Get(k)
	}
	return raw, nil
}
