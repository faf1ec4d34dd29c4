package calendar

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected       = errors.New("calendar not connected")
	ErrCredentialNotFound = errors.New("calendar credential not found")
	ErrMissingCode        = errors.New("authorization code is required")
	ErrMissingRedirectURI = errors.New("redirect uri is required")
	ErrMissingEventID     = errors.New("event id is required")
)

// UpstreamError is a non-success response from the OAuth endpoint or the calendar API.
type UpstreamError struct {
	Status  int
	Body    string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream failure (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream failure (status %d)", e.Status)
}
