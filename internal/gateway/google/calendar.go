package google

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"child-growth-go/internal/config"
	calendardomain "child-growth-go/internal/domain/calendar"
	"github.com/go-resty/resty/v2"
)

// CalendarClient forwards requests to the Google Calendar v3 REST API and relays responses verbatim.
type CalendarClient struct {
	http *resty.Client
}

func NewCalendarClient(cfg config.CalendarConfig) *CalendarClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.APIBaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &CalendarClient{http: client}
}

func (c *CalendarClient) ListCalendars(ctx context.Context, accessToken string) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Get("/users/me/calendarList")
	return relay(resp, err)
}

func (c *CalendarClient) ListEvents(ctx context.Context, accessToken string, query calendardomain.EventQuery) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetPathParam("calendarId", query.CalendarID).
		SetQueryParams(map[string]string{
			"timeMin":      query.TimeMin.UTC().Format(time.RFC3339),
			"timeMax":      query.TimeMax.UTC().Format(time.RFC3339),
			"singleEvents": "true",
			"orderBy":      "startTime",
		}).
		Get("/calendars/{calendarId}/events")
	return relay(resp, err)
}

func (c *CalendarClient) CreateEvent(ctx context.Context, accessToken string, event calendardomain.NewEvent) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetPathParam("calendarId", event.CalendarID).
		SetHeader("Content-Type", "application/json").
		SetBody([]byte(event.Event)).
		Post("/calendars/{calendarId}/events")
	return relay(resp, err)
}

func (c *CalendarClient) DeleteEvent(ctx context.Context, accessToken string, ref calendardomain.EventRef) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetPathParams(map[string]string{
			"calendarId": ref.CalendarID,
			"eventId":    ref.EventID,
		}).
		Delete("/calendars/{calendarId}/events/{eventId}")
	_, err = relay(resp, err)
	return err
}

func relay(resp *resty.Response, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, &calendardomain.UpstreamError{Status: http.StatusBadGateway, Message: err.Error()}
	}
	if !resp.IsSuccess() {
		return nil, &calendardomain.UpstreamError{
			Status:  resp.StatusCode(),
			Body:    resp.String(),
			Message: http.StatusText(resp.StatusCode()),
		}
	}
	return json.RawMessage(resp.Body()), nil
}
