package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	calendardomain "child-growth-go/internal/domain/calendar"
	"child-growth-go/internal/transport/httpserver/middleware"
	"child-growth-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	err        error
	connected  bool
	exchanged  []string
	query      calendardomain.EventQuery
	newEvent   calendardomain.NewEvent
	deleted    calendardomain.EventRef
	disconnect int
}

func (b *fakeBroker) AuthURL(userID, redirectURI string) (string, error) {
	if redirectURI == "" {
		return "", calendardomain.ErrMissingRedirectURI
	}
	return "https://accounts.example.com/auth?state=" + userID, nil
}

func (b *fakeBroker) ExchangeAuthorizationCode(ctx context.Context, userID, code, redirectURI string) error {
	b.exchanged = append(b.exchanged, userID, code, redirectURI)
	return b.err
}

func (b *fakeBroker) Status(ctx context.Context, userID string) (bool, error) {
	return b.connected, b.err
}

func (b *fakeBroker) Disconnect(ctx context.Context, userID string) error {
	b.disconnect++
	return nil
}

func (b *fakeBroker) ListCalendars(ctx context.Context, userID string) (json.RawMessage, error) {
	if b.err != nil {
		return nil, b.err
	}
	return json.RawMessage(`{"items":[{"id":"primary"}]}`), nil
}

func (b *fakeBroker) ListEvents(ctx context.Context, userID string, query calendardomain.EventQuery) (json.RawMessage, error) {
	b.query = query
	if b.err != nil {
		return nil, b.err
	}
	return json.RawMessage(`{"items":[]}`), nil
}

func (b *fakeBroker) CreateEvent(ctx context.Context, userID string, event calendardomain.NewEvent) (json.RawMessage, error) {
	b.newEvent = event
	if b.err != nil {
		return nil, b.err
	}
	return json.RawMessage(`{"id":"evt-1"}`), nil
}

func (b *fakeBroker) DeleteEvent(ctx context.Context, userID string, ref calendardomain.EventRef) error {
	b.deleted = ref
	return b.err
}

func newTestRouter(broker *fakeBroker) http.Handler {
	h := New(broker, logger.Discard())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), middleware.User{ID: "user-1"})))
		})
	})
	r.Get("/api/calendar/status", h.Status)
	r.Get("/api/calendar/auth-url", h.AuthURL)
	r.Post("/api/calendar/exchange-code", h.ExchangeCode)
	r.Post("/api/calendar/disconnect", h.Disconnect)
	r.Get("/api/calendar/calendars", h.ListCalendars)
	r.Get("/api/calendar/events", h.ListEvents)
	r.Post("/api/calendar/events", h.CreateEvent)
	r.Delete("/api/calendar/events/{event_id}", h.DeleteEvent)
	return r
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStatusAndAuthURL(t *testing.T) {
	router := newTestRouter(&fakeBroker{connected: true})

	rec := serve(router, http.MethodGet, "/api/calendar/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"connected":true}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/calendar/auth-url?redirect_uri=https://app.example.com/cb", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"auth_url":"https://accounts.example.com/auth?state=user-1"}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/calendar/auth-url", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExchangeCode(t *testing.T) {
	broker := &fakeBroker{}
	router := newTestRouter(broker)

	rec := serve(router, http.MethodPost, "/api/calendar/exchange-code", `{"code":"c-1","redirect_uri":"https://app.example.com/cb"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user-1", "c-1", "https://app.example.com/cb"}, broker.exchanged)

	rec = serve(router, http.MethodPost, "/api/calendar/exchange-code", `{"redirect_uri":"https://app.example.com/cb"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExchangeCodeUpstreamFailure(t *testing.T) {
	broker := &fakeBroker{err: &calendardomain.UpstreamError{
		Status:  400,
		Body:    `{"error":"invalid_grant","error_description":"Bad Request","debug":"x-trace-91"}`,
		Message: "Bad Request",
	}}

	rec := serve(newTestRouter(broker), http.MethodPost, "/api/calendar/exchange-code", `{"code":"c-1","redirect_uri":"https://app.example.com/cb"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"upstream_failure","message":"google token exchange failed: Bad Request"}}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "x-trace-91")
}

func TestPassthroughUpstreamFailureHidesMessage(t *testing.T) {
	broker := &fakeBroker{err: &calendardomain.UpstreamError{Status: 403, Body: `{"error":{"message":"quota"}}`, Message: "Forbidden"}}

	rec := serve(newTestRouter(broker), http.MethodGet, "/api/calendar/calendars", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"upstream_failure","message":"google calendar request failed"}}`, rec.Body.String())
}

func TestPassthroughRelaysBody(t *testing.T) {
	broker := &fakeBroker{}
	router := newTestRouter(broker)

	rec := serve(router, http.MethodGet, "/api/calendar/calendars", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[{"id":"primary"}]}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/calendar/events?calendar_id=family&time_min=2026-10-01T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "family", broker.query.CalendarID)
	assert.True(t, broker.query.TimeMin.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, broker.query.TimeMax.IsZero())

	rec = serve(router, http.MethodGet, "/api/calendar/events?time_max=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, "/api/calendar/events", `{"event":{"summary":"Imunisasi"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"evt-1"}`, rec.Body.String())
	assert.JSONEq(t, `{"summary":"Imunisasi"}`, string(broker.newEvent.Event))

	rec = serve(router, http.MethodDelete, "/api/calendar/events/evt-1?calendar_id=family", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calendardomain.EventRef{CalendarID: "family", EventID: "evt-1"}, broker.deleted)
}

func TestPassthroughErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{calendardomain.ErrNotConnected, http.StatusUnauthorized, "not_connected"},
		{&calendardomain.UpstreamError{Status: 404}, http.StatusBadGateway, "upstream_failure"},
		{errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		rec := serve(newTestRouter(&fakeBroker{err: tc.err}), http.MethodGet, "/api/calendar/calendars", "")
		assert.Equal(t, tc.status, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"`+tc.code+`"`)
	}
}

func TestDisconnect(t *testing.T) {
	broker := &fakeBroker{}

	rec := serve(newTestRouter(broker), http.MethodPost, "/api/calendar/disconnect", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, broker.disconnect)
}
