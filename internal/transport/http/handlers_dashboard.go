package httptransport

import (
	"net/http"
	"strconv"

	"clubportal/internal/dashboard"
	"clubportal/pkg/platform/httputil"
	"clubportal/pkg/requestcontext"
)

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgs, err := h.dashboard.RecentMessages(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list messages",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if msgs == nil {
		msgs = []dashboard.Message{}
	}
	httputil.WriteJSON(w, http.StatusOK, MessagesResponse{Messages: msgs})
}

func (h *Handler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PostMessageRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	msg, err := h.dashboard.PostMessage(ctx, requestcontext.PrincipalID(ctx), requestcontext.DisplayName(ctx), req.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "message rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.dashboard.Profile(ctx, requestcontext.PrincipalID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UpdateProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.dashboard.UpdateProfile(ctx, requestcontext.PrincipalID(ctx), requestcontext.DisplayName(ctx), dashboard.ProfileUpdate{
		Bio:    req.Bio,
		Skills: req.Skills,
		Tags:   req.Tags,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "profile update rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profiles, err := h.dashboard.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if profiles == nil {
		profiles = []dashboard.Profile{}
	}
	httputil.WriteJSON(w, http.StatusOK, ProfilesResponse{Profiles: profiles})
}
