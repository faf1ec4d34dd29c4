package calendar

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	calendardomain "child-growth-go/internal/domain/calendar"
	commonhandler "child-growth-go/internal/transport/httpserver/handler/common"
	"child-growth-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type exchangeCodeRequest struct {
	Code        string `json:"code" validate:"required"`
	RedirectURI string `json:"redirect_uri" validate:"required,url"`
}

type createEventRequest struct {
	CalendarID string          `json:"calendar_id"`
	Event      json.RawMessage `json:"event" validate:"required"`
}

type statusResponse struct {
	Connected bool `json:"connected"`
}

type authURLResponse struct {
	AuthURL string `json:"auth_url"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	connected, err := h.Calendar.Status(r.Context(), user.ID)
	if err != nil {
		h.writeBrokerError(w, "calendar.status", err, user.ID)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Connected: connected})
}

func (h *Handlers) AuthURL(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	authURL, err := h.Calendar.AuthURL(user.ID, strings.TrimSpace(r.URL.Query().Get("redirect_uri")))
	if err != nil {
		h.writeBrokerError(w, "calendar.auth_url", err, user.ID)
		return
	}
	writeJSON(w, http.StatusOK, authURLResponse{AuthURL: authURL})
}

func (h *Handlers) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req exchangeCodeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.Calendar.ExchangeAuthorizationCode(r.Context(), user.ID, req.Code, req.RedirectURI); err != nil {
		h.writeBrokerError(w, opExchangeCode, err, user.ID)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if err := h.Calendar.Disconnect(r.Context(), user.ID); err != nil {
		h.writeBrokerError(w, "calendar.disconnect", err, user.ID)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handlers) ListCalendars(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	body, err := h.Calendar.ListCalendars(r.Context(), user.ID)
	if err != nil {
		h.writeBrokerError(w, "calendar.list_calendars", err, user.ID)
		return
	}
	commonhandler.WriteRaw(w, http.StatusOK, body)
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	query := r.URL.Query()
	timeMin, err := parseTimeParam(query.Get("time_min"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid time_min")
		return
	}
	timeMax, err := parseTimeParam(query.Get("time_max"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid time_max")
		return
	}

	body, err := h.Calendar.ListEvents(r.Context(), user.ID, calendardomain.EventQuery{
		CalendarID: strings.TrimSpace(query.Get("calendar_id")),
		TimeMin:    timeMin,
		TimeMax:    timeMax,
	})
	if err != nil {
		h.writeBrokerError(w, "calendar.list_events", err, user.ID)
		return
	}
	commonhandler.WriteRaw(w, http.StatusOK, body)
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req createEventRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	body, err := h.Calendar.CreateEvent(r.Context(), user.ID, calendardomain.NewEvent{
		CalendarID: strings.TrimSpace(req.CalendarID),
		Event:      req.Event,
	})
	if err != nil {
		h.writeBrokerError(w, "calendar.create_event", err, user.ID)
		return
	}
	commonhandler.WriteRaw(w, http.StatusOK, body)
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	err := h.Calendar.DeleteEvent(r.Context(), user.ID, calendardomain.EventRef{
		CalendarID: strings.TrimSpace(r.URL.Query().Get("calendar_id")),
		EventID:    chi.URLParam(r, "event_id"),
	})
	if err != nil {
		h.writeBrokerError(w, "calendar.delete_event", err, user.ID)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// parseTimeParam returns the zero time for an empty value so the broker applies its defaults.
func parseTimeParam(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
