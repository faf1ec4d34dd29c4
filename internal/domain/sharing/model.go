package sharing

import "time"

const (
	DefaultExpiresInDays = 7
	MaxExpiresInDays     = 90
)

type ShareLink struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	ChildID        string    `gorm:"type:uuid;not null;index"`
	CreatedBy      string    `gorm:"type:uuid;not null;index"`
	ShareToken     string    `gorm:"not null;uniqueIndex"`
	AccessCode     string    `gorm:"size:6;not null"`
	ExpiresAt      time.Time `gorm:"not null"`
	IsActive       bool      `gorm:"not null;default:true"`
	AccessCount    int       `gorm:"not null;default:0"`
	LastAccessedAt *time.Time
	DoctorName     *string
	DoctorEmail    *string
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// Usable reports whether the link still grants access at now.
func (l *ShareLink) Usable(now time.Time) bool {
	return l.IsActive && now.Before(l.ExpiresAt)
}

type CreateLinkInput struct {
	UserID        string
	ChildID       string
	DoctorName    string
	DoctorEmail   string
	ExpiresInDays int
}
