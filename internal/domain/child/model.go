package child

import "time"

type Child struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	UserID      string    `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	DateOfBirth time.Time `gorm:"type:date;not null"`
	Gender      *string
	AvatarURL   *string
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

type GrowthMeasurement struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	ChildID         string    `gorm:"type:uuid;not null;index"`
	MeasurementDate time.Time `gorm:"type:date;not null"`
	WeightKg        *float64
	HeightCm        *float64
	BMI             *float64 `gorm:"column:bmi"`
	Notes           *string
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

type Milestone struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	ChildID        string `gorm:"type:uuid;not null;index"`
	Category       string `gorm:"not null"`
	Title          string `gorm:"not null"`
	Description    *string
	AgeRangeMonths *string
	IsAchieved     bool       `gorm:"not null;default:false"`
	AchievedDate   *time.Time `gorm:"type:date"`
	Notes          *string
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Child) TableName() string {
	return "children"
}

func (GrowthMeasurement) TableName() string {
	return "growth_measurements"
}

// Snapshot is the read-only projection handed to share-link viewers.
type Snapshot struct {
	Child        Child
	Measurements []GrowthMeasurement
	Milestones   []Milestone
}
