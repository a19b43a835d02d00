// Package auth provides the session authentication middleware. It only establishes
// who the caller is; role-gated access is decided by internal/guard.
package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	id "clubportal/pkg/domain"
	"clubportal/pkg/requestcontext"
)

// SessionCookieName is the cookie that carries the session token for browser clients.
const SessionCookieName = "portal_session"

// TokenValidator validates a session token and returns the caller's identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims represents the claims we expect from the token validator.
type TokenClaims struct {
	PrincipalID id.PrincipalID
	DisplayName string
	RoleHint    string
}

// Authenticate resolves the session token from the Authorization header or the session
// cookie. Requests without a token continue anonymously. Requests with a malformed or
// expired token are redirected to signInRoute with the original path in "next", and the
// stale cookie is cleared.
func Authenticate(validator TokenValidator, signInRoute string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokenFromRequest(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "session token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    "",
					Path:     "/",
					MaxAge:   -1,
					HttpOnly: true,
				})
				http.Redirect(w, r, SignInLocation(signInRoute, r.URL.RequestURI()), http.StatusFound)
				return
			}

			ctx = requestcontext.WithPrincipal(ctx, claims.PrincipalID, claims.DisplayName)
			ctx = requestcontext.WithRoleHint(ctx, claims.RoleHint)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SignInLocation builds the sign-in redirect target preserving the requested path.
func SignInLocation(signInRoute, requested string) string {
	if requested == "" || requested == signInRoute {
		return signInRoute
	}
	return signInRoute + "?next=" + url.QueryEscape(requested)
}

func tokenFromRequest(r *http.Request) (string, bool) {
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		token := strings.TrimSpace(after)
		return token, token != ""
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}
