// Package models contains the persistent domain types and the shared API error model.
package models

import "time"

// User is an account identity. Username and Email both hold the lowercased email address.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"size:254;uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	FirstName   string     `gorm:"size:255" json:"first_name"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Profile *Profile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"profile,omitempty"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}
