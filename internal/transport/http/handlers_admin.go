package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubportal/internal/i18n"
	id "clubportal/pkg/domain"
	dErrors "clubportal/pkg/domain-errors"
	"clubportal/pkg/platform/httputil"
	"clubportal/pkg/requestcontext"
)

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assignments, err := h.assignments.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list role assignments",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list role assignments"))
		return
	}
	out := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, fromAssignment(a))
	}
	httputil.WriteJSON(w, http.StatusOK, AdminResponse{
		Title:       h.catalog.Translate(i18n.Locale(ctx), "page.admin"),
		Assignments: out,
	})
}

// handleAssignRole sets a member's role. Callers cannot change their own role.
func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	target, err := id.ParsePrincipalID(chi.URLParam(r, "principalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	caller := requestcontext.PrincipalID(ctx)
	if target == caller {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "cannot change your own role"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[AssignRoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.assignments.SetRole(ctx, target, req.parsed); err != nil {
		h.logger.ErrorContext(ctx, "failed to assign role",
			"request_id", requestID,
			"principal_id", target.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign role"))
		return
	}
	h.logger.InfoContext(ctx, "role assigned",
		"request_id", requestID,
		"principal_id", target.String(),
		"role", req.parsed.String(),
		"assigned_by", caller.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, AssignmentResponse{
		PrincipalID: target.String(),
		Role:        req.parsed.String(),
		UpdatedAt:   requestcontext.Now(ctx),
	})
}
