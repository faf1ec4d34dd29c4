package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	calendardomain "child-growth-go/internal/domain/calendar"
	commonhandler "child-growth-go/internal/transport/httpserver/handler/common"
	"child-growth-go/pkg/logger"
)

type Broker interface {
	AuthURL(userID, redirectURI string) (string, error)
	ExchangeAuthorizationCode(ctx context.Context, userID, code, redirectURI string) error
	Status(ctx context.Context, userID string) (bool, error)
	Disconnect(ctx context.Context, userID string) error
	ListCalendars(ctx context.Context, userID string) (json.RawMessage, error)
	ListEvents(ctx context.Context, userID string, query calendardomain.EventQuery) (json.RawMessage, error)
	CreateEvent(ctx context.Context, userID string, event calendardomain.NewEvent) (json.RawMessage, error)
	DeleteEvent(ctx context.Context, userID string, ref calendardomain.EventRef) error
}

type Handlers struct {
	Calendar Broker
	log      logger.Logger
}

func New(calendar Broker, log logger.Logger) *Handlers {
	return &Handlers{
		Calendar: calendar,
		log:      log,
	}
}

const opExchangeCode = "calendar.exchange_code"

// writeBrokerError maps broker failures. Upstream bodies are logged, never returned.
// A failed code exchange also returns the provider's error message.
func (h *Handlers) writeBrokerError(w http.ResponseWriter, op string, err error, userID string) {
	var upstream *calendardomain.UpstreamError
	switch {
	case errors.Is(err, calendardomain.ErrNotConnected):
		h.log.BusinessError(op+": not connected", err, "user_id", userID)
		writeError(w, http.StatusUnauthorized, "not_connected", "not connected to google calendar")
	case errors.Is(err, calendardomain.ErrMissingCode),
		errors.Is(err, calendardomain.ErrMissingRedirectURI),
		errors.Is(err, calendardomain.ErrMissingEventID):
		h.log.BusinessError(op+": invalid request", err, "user_id", userID)
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.As(err, &upstream):
		h.log.InternalError(op+": upstream failure", err, "user_id", userID, "upstream_status", upstream.Status, "upstream_body", upstream.Body)
		message := "google calendar request failed"
		if op == opExchangeCode && upstream.Message != "" {
			message = "google token exchange failed: " + upstream.Message
		}
		writeError(w, http.StatusBadGateway, "upstream_failure", message)
	default:
		h.log.InternalError(op+": failed", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	commonhandler.WriteError(w, status, code, message)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func decodeAndValidate(r *http.Request, dst interface{}) error {
	return commonhandler.DecodeAndValidate(r, dst)
}
