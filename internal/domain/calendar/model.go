package calendar

import (
	"encoding/json"
	"time"
)

const (
	DefaultCalendarID  = "primary"
	DefaultEventWindow = 30 * 24 * time.Hour
)

type Credential struct {
	UserID       string    `gorm:"type:uuid;primaryKey"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text"`
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Credential) TableName() string {
	return "google_calendar_tokens"
}

// Expired reports whether the access token can no longer be used at now.
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// TokenGrant is a token endpoint response. RefreshToken is empty when the provider did not issue one.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type EventQuery struct {
	CalendarID string
	TimeMin    time.Time
	TimeMax    time.Time
}

type NewEvent struct {
	CalendarID string
	Event      json.RawMessage
}

type EventRef struct {
	CalendarID string
	EventID    string
}
