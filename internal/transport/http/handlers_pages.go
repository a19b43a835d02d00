package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubportal/internal/dashboard"
	"clubportal/internal/i18n"
	dErrors "clubportal/pkg/domain-errors"
	"clubportal/pkg/platform/httputil"
	"clubportal/pkg/requestcontext"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "dependency unavailable"))
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handlePage(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		locale := i18n.Locale(ctx)
		httputil.WriteJSON(w, http.StatusOK, PageResponse{
			Page:          key,
			Title:         h.catalog.Translate(locale, "page."+key),
			Locale:        locale.String(),
			Authenticated: requestcontext.IsAuthenticated(ctx),
			DisplayName:   requestcontext.DisplayName(ctx),
			Next:          r.URL.Query().Get("next"),
		})
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	locale := i18n.Locale(r.Context())
	tabs := make([]TabResponse, 0, len(dashboard.Tabs))
	for _, tab := range dashboard.Tabs {
		tabs = append(tabs, TabResponse{Tab: tab, Title: h.catalog.Translate(locale, "dashboard."+tab)})
	}
	httputil.WriteJSON(w, http.StatusOK, DashboardResponse{Tabs: tabs})
}

// handleTab serves the static dashboard tabs. Tabs with their own handlers are
// routed before this one.
func (h *Handler) handleTab(w http.ResponseWriter, r *http.Request) {
	tab := chi.URLParam(r, "tab")
	if !dashboard.IsTab(tab) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown dashboard tab"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TabResponse{
		Tab:   tab,
		Title: h.catalog.Translate(i18n.Locale(r.Context()), "dashboard."+tab),
	})
}
