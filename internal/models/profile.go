package models

import "time"

// Profile field limits.
const (
	MaxFullNameLength = 255
	MaxBioLength      = 255
	MaxGenderLength   = 50
	// MaxBodyMetric bounds age, height_cm and weight_kg (positive small integer range).
	MaxBodyMetric = 32767
)

// Profile holds the public-facing details of a user. Exactly one exists per user.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName  string    `gorm:"size:255;not null;default:''" json:"full_name"`
	Bio       string    `gorm:"size:255;not null;default:''" json:"bio"`
	Avatar    string    `gorm:"size:512;not null;default:''" json:"avatar"`
	Gender    string    `gorm:"size:50;not null;default:''" json:"gender"`
	Age       *uint     `json:"age"`
	HeightCm  *uint     `json:"height_cm"`
	WeightKg  *uint     `json:"weight_kg"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string {
	return "profiles"
}
