package grantclient

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func TestTokenValid(t *testing.T) {
	tests := []struct {
		name  string
		token *Token
		want  bool
	}{
		{
			name:  "nil token",
			token: nil,
			want:  false,
		},
		{
			name:  "empty access token",
			token: &Token{TokenType: "Bearer"},
			want:  false,
		},
		{
			name:  "no expiry",
			token: &Token{AccessToken: "abc", TokenType: "Bearer"},
			want:  true,
		},
		{
			name: "future expiry",
			token: &Token{
				AccessToken: "abc",
				Expiry:      time.Now().Add(time.Hour),
			},
			want: true,
		},
		{
			name: "past expiry",
			token: &Token{
				AccessToken: "abc",
				Expiry:      time.Now().Add(-time.Minute),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenFromRawExpiresIn(t *testing.T) {
	before := time.Now()
	token, err := tokenFromRaw(map[string]any{
		"access_token": "abc",
		"token_type":   "Bearer",
		"expires_in":   float64(3600),
	})
	if err != nil {
		t.Fatalf("tokenFromRaw() error: %v", err)
	}

	if token.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", token.ExpiresIn)
	}
	min := before.Add(3599 * time.Second)
	max := time.Now().Add(3601 * time.Second)
	if token.Expiry.Before(min) || token.Expiry.After(max) {
		t.Errorf("Expiry = %v, want within [%v, %v]", token.Expiry, min, max)
	}
}

func TestTokenFromRawExpiresInString(t *testing.T) {
	token, err := tokenFromRaw(map[string]any{
		"access_token": "abc",
		"expires_in":   "120",
	})
	if err != nil {
		t.Fatalf("tokenFromRaw() error: %v", err)
	}
	if token.ExpiresIn != 120 {
		t.Errorf("ExpiresIn = %d, want 120", token.ExpiresIn)
	}
}

func TestTokenFromRawScopeList(t *testing.T) {
	token, err := tokenFromRaw(map[string]any{
		"access_token": "abc",
		"scope":        []any{"read", "write"},
	})
	if err != nil {
		t.Fatalf("tokenFromRaw() error: %v", err)
	}
	if token.Scope != "read write" {
		t.Errorf("Scope = %q, want %q", token.Scope, "read write")
	}
	list := token.ScopeList()
	if len(list) != 2 || list[0] != "read" || list[1] != "write" {
		t.Errorf("ScopeList() = %v, want [read write]", list)
	}
}

// fakeJWT builds an unsigned JWT with the given exp claim. The signature is
// garbage on purpose; expiry derivation must not verify it.
func fakeJWT(tb testing.TB, exp time.Time) string {
	tb.Helper()

	enc := func(v any) string {
		data, err := json.Marshal(v)
		if err != nil {
			tb.Fatalf("failed to marshal JWT part: %v", err)
		}
		return base64.RawURLEncoding.EncodeToString(data)
	}

	header := enc(map[string]any{"alg": "RS256", "typ": "JWT"})
	claims := enc(map[string]any{"sub": "user-123", "exp": exp.Unix()})
	return fmt.Sprintf("%s.%s.%s", header, claims, base64.RawURLEncoding.EncodeToString([]byte("sig")))
}

func TestTokenFromRawJWTExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token, err := tokenFromRaw(map[string]any{
		"access_token": fakeJWT(t, exp),
		"token_type":   "Bearer",
	})
	if err != nil {
		t.Fatalf("tokenFromRaw() error: %v", err)
	}
	if !token.Expiry.Equal(exp) {
		t.Errorf("Expiry = %v, want %v (from JWT exp claim)", token.Expiry, exp)
	}
}

func TestTokenFromRawOpaqueTokenNoExpiry(t *testing.T) {
	token, err := tokenFromRaw(map[string]any{
		"access_token": "opaque-token-value",
	})
	if err != nil {
		t.Fatalf("tokenFromRaw() error: %v", err)
	}
	if !token.Expiry.IsZero() {
		t.Errorf("Expiry = %v, want zero for opaque token without expires_in", token.Expiry)
	}
	if token.Expired() {
		t.Error("Expired() = true for token without expiry")
	}
}

func TestTokenJSONRoundTrip(t *testing.T) {
	original := &Token{
		AccessToken:  "abc",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Scope:        "read write",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
		Raw: map[string]any{
			"access_token": "abc",
			"id_token":     "extra-value",
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var restored Token
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if restored.AccessToken != original.AccessToken {
		t.Errorf("AccessToken = %q, want %q", restored.AccessToken, original.AccessToken)
	}
	if restored.RefreshToken != original.RefreshToken {
		t.Errorf("RefreshToken = %q, want %q", restored.RefreshToken, original.RefreshToken)
	}
	if !restored.Expiry.Equal(original.Expiry) {
		t.Errorf("Expiry = %v, want %v", restored.Expiry, original.Expiry)
	}
	if got := restored.Extra("id_token"); got != "extra-value" {
		t.Errorf("Extra(id_token) = %v, want extra-value", got)
	}
}

func TestTokenOAuth2Bridge(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	token := &Token{
		AccessToken:  "abc",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Expiry:       expiry,
		Raw:          map[string]any{"id_token": "xyz"},
	}

	ot := token.OAuth2Token()
	if ot.AccessToken != "abc" || ot.RefreshToken != "refresh-1" {
		t.Errorf("bridge lost credentials: %+v", ot)
	}
	if !ot.Expiry.Equal(expiry) {
		t.Errorf("bridge Expiry = %v, want %v", ot.Expiry, expiry)
	}
	if got := ot.Extra("id_token"); got != "xyz" {
		t.Errorf("bridge Extra(id_token) = %v, want xyz", got)
	}
	if !ot.Valid() {
		t.Error("bridge token should be valid")
	}
}

func TestParseTokenBodyFormEncoded(t *testing.T) {
	raw, err := parseTokenBody([]byte("access_token=abc&token_type=bearer&expires_in=3600"))
	if err != nil {
		t.Fatalf("parseTokenBody() error: %v", err)
	}
	if raw["access_token"] != "abc" {
		t.Errorf("access_token = %v, want abc", raw["access_token"])
	}
	if raw["token_type"] != "bearer" {
		t.Errorf("token_type = %v, want bearer", raw["token_type"])
	}
}
