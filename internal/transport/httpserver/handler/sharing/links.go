package sharing

import (
	"errors"
	"net/http"
	"time"

	childdomain "child-growth-go/internal/domain/child"
	sharingdomain "child-growth-go/internal/domain/sharing"
	"child-growth-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type createLinkRequest struct {
	DoctorName    string `json:"doctor_name" validate:"omitempty,max=200"`
	DoctorEmail   string `json:"doctor_email" validate:"omitempty,email"`
	ExpiresInDays int    `json:"expires_in_days" validate:"omitempty,min=1"`
}

type linkResponse struct {
	ID             string     `json:"id"`
	ChildID        string     `json:"child_id"`
	ShareToken     string     `json:"share_token"`
	AccessCode     string     `json:"access_code"`
	ShareURL       string     `json:"share_url"`
	ExpiresAt      time.Time  `json:"expires_at"`
	IsActive       bool       `json:"is_active"`
	AccessCount    int        `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
	DoctorName     *string    `json:"doctor_name"`
	DoctorEmail    *string    `json:"doctor_email"`
	CreatedAt      time.Time  `json:"created_at"`
}

type linkListResponse struct {
	Items []linkResponse `json:"items"`
	Total int            `json:"total"`
}

func (h *Handlers) CreateLink(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	childID := chi.URLParam(r, "child_id")

	var req createLinkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	link, err := h.Sharing.CreateLink(r.Context(), sharingdomain.CreateLinkInput{
		UserID:        user.ID,
		ChildID:       childID,
		DoctorName:    req.DoctorName,
		DoctorEmail:   req.DoctorEmail,
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		h.writeLinkError(w, "sharing.create_link", err, user.ID)
		return
	}

	writeJSON(w, http.StatusCreated, h.toLinkResponse(link))
}

func (h *Handlers) ListLinks(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	childID := chi.URLParam(r, "child_id")

	links, err := h.Sharing.ListLinks(r.Context(), user.ID, childID)
	if err != nil {
		h.writeLinkError(w, "sharing.list_links", err, user.ID)
		return
	}

	items := make([]linkResponse, 0, len(links))
	for i := range links {
		items = append(items, h.toLinkResponse(&links[i]))
	}
	writeJSON(w, http.StatusOK, linkListResponse{Items: items, Total: len(items)})
}

func (h *Handlers) RevokeLink(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	link, err := h.Sharing.RevokeLink(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeLinkError(w, "sharing.revoke_link", err, user.ID)
		return
	}

	writeJSON(w, http.StatusOK, h.toLinkResponse(link))
}

func (h *Handlers) DeleteLink(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if err := h.Sharing.DeleteLink(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		h.writeLinkError(w, "sharing.delete_link", err, user.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeLinkError(w http.ResponseWriter, op string, err error, userID string) {
	switch {
	case errors.Is(err, childdomain.ErrChildNotFound):
		h.log.BusinessError(op+": child not found", err, "user_id", userID)
		writeError(w, http.StatusNotFound, "child_not_found", "child not found")
	case errors.Is(err, sharingdomain.ErrShareLinkNotFound):
		h.log.BusinessError(op+": share link not found", err, "user_id", userID)
		writeError(w, http.StatusNotFound, "share_link_not_found", "share link not found")
	case errors.Is(err, sharingdomain.ErrInvalidExpiry):
		h.log.BusinessError(op+": invalid expiry", err, "user_id", userID)
		writeError(w, http.StatusBadRequest, "invalid_request", "expires_in_days out of range")
	default:
		h.log.InternalError(op+": failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (h *Handlers) toLinkResponse(link *sharingdomain.ShareLink) linkResponse {
	return linkResponse{
		ID:             link.ID,
		ChildID:        link.ChildID,
		ShareToken:     link.ShareToken,
		AccessCode:     link.AccessCode,
		ShareURL:       h.Sharing.ShareURL(link.ShareToken),
		ExpiresAt:      link.ExpiresAt,
		IsActive:       link.IsActive,
		AccessCount:    link.AccessCount,
		LastAccessedAt: link.LastAccessedAt,
		DoctorName:     link.DoctorName,
		DoctorEmail:    link.DoctorEmail,
		CreatedAt:      link.CreatedAt,
	}
}
