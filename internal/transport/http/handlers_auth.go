package httptransport

import (
	"net/http"

	"clubportal/internal/role"
	"clubportal/internal/session"
	dErrors "clubportal/pkg/domain-errors"
	"clubportal/pkg/platform/httputil"
	authmw "clubportal/pkg/platform/middleware/auth"
	"clubportal/pkg/requestcontext"
)

// handleSignIn accepts a token issued by the auth provider and stores it in the
// session cookie.
func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SignInRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	claims, err := h.tokens.ValidateToken(req.Token)
	if err != nil {
		h.logger.WarnContext(ctx, "sign in rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authmw.SessionCookieName,
		Value:    req.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.InfoContext(ctx, "signed in",
		"request_id", requestID,
		"principal_id", claims.PrincipalID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{
		Status:      session.StatusAuthenticated.String(),
		PrincipalID: claims.PrincipalID.String(),
		DisplayName: claims.DisplayName,
	})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{Status: session.StatusAnonymous.String()})
}

// handleSession reports the caller's session with the authoritative role. A failed
// role lookup reports free, matching the session store.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requestcontext.IsAuthenticated(ctx) {
		httputil.WriteJSON(w, http.StatusOK, SessionResponse{Status: session.StatusAnonymous.String()})
		return
	}

	principalID := requestcontext.PrincipalID(ctx)
	assigned, err := h.roles.Resolve(ctx, principalID)
	if err != nil {
		h.logger.WarnContext(ctx, "role resolution failed, reporting free",
			"request_id", requestcontext.RequestID(ctx),
			"principal_id", principalID.String(),
			"error", err,
		)
		assigned = role.Free
	}
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{
		Status:      session.StatusAuthenticated.String(),
		PrincipalID: principalID.String(),
		DisplayName: requestcontext.DisplayName(ctx),
		Role:        assigned.String(),
		RoleHint:    requestcontext.RoleHint(ctx),
	})
}
