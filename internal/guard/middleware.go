package guard

import (
	"context"
	"net/http"

	"clubportal/internal/role"
	"clubportal/pkg/requestcontext"
)

// RequireRole guards an HTTP route at min. Requests without a principal are redirected
// to the fallback without a role check; failed or negative checks are redirected the
// same way, so the response does not reveal why access was refused.
func RequireRole(checker Checker, min role.Role, opts ...Option) func(http.Handler) http.Handler {
	cfg := newConfig(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)
			principalID := requestcontext.PrincipalID(ctx)

			if principalID.IsNil() {
				cfg.metrics.IncrementAccessDecision("http", min.String(), Denied.String())
				http.Redirect(w, r, cfg.fallback, http.StatusFound)
				return
			}

			checkCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
			allowed, err := checker.CheckRoleOrHigher(checkCtx, principalID, min)
			cancel()
			if err != nil {
				cfg.logger.WarnContext(ctx, "role check failed, denying access",
					"request_id", requestID,
					"principal_id", principalID.String(),
					"required_role", min.String(),
					"error", err,
				)
			}
			if err != nil || !allowed {
				cfg.metrics.IncrementAccessDecision("http", min.String(), Denied.String())
				http.Redirect(w, r, cfg.fallback, http.StatusFound)
				return
			}

			cfg.metrics.IncrementAccessDecision("http", min.String(), Granted.String())
			next.ServeHTTP(w, r)
		})
	}
}
