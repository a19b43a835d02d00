package testutil

import (
	"net/http"

	id "clubportal/pkg/domain"
	authmw "clubportal/pkg/platform/middleware/auth"
	"clubportal/pkg/requestcontext"
)

// WithPrincipal marks the request as authenticated the way auth.Authenticate would.
func WithPrincipal(req *http.Request, principalID id.PrincipalID, displayName string) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), principalID, displayName))
}

// WithBearer sets an Authorization bearer token.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// WithSessionCookie attaches token as the browser session cookie.
func WithSessionCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: authmw.SessionCookieName, Value: token})
	return req
}
