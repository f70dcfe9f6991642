package grantclient

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenExpired is returned by AttachToken when the held token's expiry
	// has passed. Sessions recover from it by refreshing.
	ErrTokenExpired = errors.New("grantclient: token expired")

	// ErrMissingToken is returned by AttachToken when no token is held.
	ErrMissingToken = errors.New("grantclient: missing token")

	// ErrStateMismatch is returned when an authorization callback carries a
	// state value different from the one issued with the authorization URL.
	ErrStateMismatch = errors.New("grantclient: state mismatch in authorization response")
)

// RemoteError is a token endpoint failure: an RFC 6749 error document, a
// non-success status, or a body that could not be parsed at all.
type RemoteError struct {
	// StatusCode is the HTTP status of the response, 0 if unknown.
	StatusCode int

	// Code is the RFC 6749 error code (e.g. "invalid_grant"), if present.
	Code string

	// Description is the optional human-readable error_description.
	Description string

	// URI is the optional error_uri.
	URI string
}

func (e *RemoteError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("grantclient: token endpoint error %s: %s", e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("grantclient: token endpoint error %s", e.Code)
	default:
		return fmt.Sprintf("grantclient: token endpoint returned unexpected response (status %d)", e.StatusCode)
	}
}

// remoteErrorFromRaw builds a RemoteError from a decoded error document.
// Returns nil if the document carries no error code.
func remoteErrorFromRaw(statusCode int, raw map[string]any) *RemoteError {
	code, _ := raw["error"].(string)
	if code == "" {
		return nil
	}
	desc, _ := raw["error_description"].(string)
	uri, _ := raw["error_uri"].(string)
	return &RemoteError{
		StatusCode:  statusCode,
		Code:        code,
		Description: desc,
		URI:         uri,
	}
}
