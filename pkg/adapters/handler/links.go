package handler

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/sololink/pkg/core/domain"
	"github.com/wadjakorntonsri/sololink/pkg/ports"
)

// LinkHandler serves the owner dashboard API. Every route runs behind
// AuthMiddleware, so the acting user id is always in the context.
type LinkHandler struct {
	service    ports.LinkService
	users      ports.UserService
	profileURL func(username string) string
	log        *zerolog.Logger
}

func NewLinkHandler(service ports.LinkService, users ports.UserService, profileURL func(string) string, log *zerolog.Logger) *LinkHandler {
	return &LinkHandler{service: service, users: users, profileURL: profileURL, log: log}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ReorderRequest payload
type ReorderRequest struct {
	OrderedLinkIDs []string `json:"orderedLinkIds"`
}

type dashboardResponse struct {
	User       *domain.User           `json:"user"`
	ProfileURL string                 `json:"profileUrl"`
	Stats      *domain.DashboardStats `json:"stats"`
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	link, err := h.service.Create(r.Context(), userIDFromContext(r.Context()), req.Title, req.URL)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.LinkPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.log, err)
		return
	}

	link, err := h.service.Update(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *LinkHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.Toggle(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *LinkHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if req.OrderedLinkIDs == nil {
		writeError(w, h.log, domain.NewValidationError("orderedLinkIds", "orderedLinkIds is required"))
		return
	}

	links, err := h.service.Reorder(r.Context(), userIDFromContext(r.Context()), req.OrderedLinkIDs)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), userIDFromContext(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LinkHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.LinkStats(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *LinkHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.users.GetByID(ctx, userIDFromContext(ctx))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	stats, err := h.service.Stats(ctx, user.ID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		User:       user,
		ProfileURL: h.profileURL(user.Name),
		Stats:      stats,
	})
}

func (h *LinkHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
