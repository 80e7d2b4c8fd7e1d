package models

import "time"

// Post limits.
const (
	MaxCaptionLength  = 2200
	MaxHashtags       = 30
	MaxHashtagLength  = 50
	MaxImageKeyLength = 512
)

// Post is a photo post in the feed.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Image     string    `gorm:"size:512;not null" json:"image"`
	Caption   string    `gorm:"type:text;not null" json:"caption"`
	Hashtags  []string  `gorm:"type:jsonb;serializer:json;not null" json:"hashtags"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string {
	return "posts"
}

// AuthorName returns the owner's profile full name, or "" when the owner was not loaded.
func (p *Post) AuthorName() string {
	if p.User == nil || p.User.Profile == nil {
		return ""
	}
	return p.User.Profile.FullName
}

// AuthorAvatar returns the owner's avatar blob key, or "".
func (p *Post) AuthorAvatar() string {
	if p.User == nil || p.User.Profile == nil {
		return ""
	}
	return p.User.Profile.Avatar
}
