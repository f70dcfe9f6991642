package oauth2session

import (
	"fmt"
	"net/http"
)

// HookPoint identifies a fixed extension point where compliance hooks run.
type HookPoint int

const (
	// HookAccessTokenResponse hooks run over the raw token endpoint response
	// before it is parsed during FetchToken.
	HookAccessTokenResponse HookPoint = iota + 1

	// HookRefreshTokenResponse hooks run over the raw refresh response
	// before it is parsed during RefreshToken.
	HookRefreshTokenResponse

	// HookProtectedRequest hooks run over (url, header, body) before a token
	// is attached to a protected request.
	HookProtectedRequest
)

// String names the hook point using the identifiers compliance documentation
// commonly uses.
func (p HookPoint) String() string {
	switch p {
	case HookAccessTokenResponse:
		return "access_token_response"
	case HookRefreshTokenResponse:
		return "refresh_token_response"
	case HookProtectedRequest:
		return "protected_request"
	default:
		return fmt.Sprintf("HookPoint(%d)", int(p))
	}
}

// ResponseHook transforms a token endpoint response before parsing. The
// returned response replaces the input for the next hook; its Body must be
// readable.
type ResponseHook func(*http.Response) *http.Response

// RequestHook transforms a protected request before the token is attached.
type RequestHook func(url string, header http.Header, body []byte) (string, http.Header, []byte)

// hookRegistry holds per-point ordered hook chains. Hooks run in
// registration order, each receiving the previous hook's output, but hooks
// should not depend on one another.
type hookRegistry struct {
	accessTokenResponse  []ResponseHook
	refreshTokenResponse []ResponseHook
	protectedRequest     []RequestHook
}

// register validates the point/hook pairing and appends the hook.
func (r *hookRegistry) register(point HookPoint, hook any) error {
	switch point {
	case HookAccessTokenResponse, HookRefreshTokenResponse:
		fn, ok := hook.(ResponseHook)
		if !ok {
			return fmt.Errorf("oauth2session: hook for %s must be a ResponseHook, got %T", point, hook)
		}
		if fn == nil {
			return fmt.Errorf("oauth2session: hook for %s is nil", point)
		}
		if point == HookAccessTokenResponse {
			r.accessTokenResponse = append(r.accessTokenResponse, fn)
		} else {
			r.refreshTokenResponse = append(r.refreshTokenResponse, fn)
		}
	case HookProtectedRequest:
		fn, ok := hook.(RequestHook)
		if !ok {
			return fmt.Errorf("oauth2session: hook for %s must be a RequestHook, got %T", point, hook)
		}
		if fn == nil {
			return fmt.Errorf("oauth2session: hook for %s is nil", point)
		}
		r.protectedRequest = append(r.protectedRequest, fn)
	default:
		return fmt.Errorf("oauth2session: unknown hook point %s", point)
	}
	return nil
}

// invokeResponse folds the chain for a response hook point. Zero hooks is
// the identity.
func (r *hookRegistry) invokeResponse(point HookPoint, resp *http.Response) *http.Response {
	chain := r.accessTokenResponse
	if point == HookRefreshTokenResponse {
		chain = r.refreshTokenResponse
	}
	for _, hook := range chain {
		resp = hook(resp)
	}
	return resp
}

// invokeProtectedRequest folds the protected_request chain.
func (r *hookRegistry) invokeProtectedRequest(url string, header http.Header, body []byte) (string, http.Header, []byte) {
	for _, hook := range r.protectedRequest {
		url, header, body = hook(url, header, body)
	}
	return url, header, body
}
