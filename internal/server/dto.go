package server

import (
	"time"

	"fitcraft/internal/models"

	"github.com/gofiber/fiber/v2"
)

// MessageResponse is returned by the account endpoints. Token is set on signup
// and login for clients that cannot keep cookies.
type MessageResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// ProfileResponse is the caller's own profile.
type ProfileResponse struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	FullName string  `json:"full_name"`
	Bio      string  `json:"bio"`
	Gender   string  `json:"gender"`
	Age      *uint   `json:"age"`
	HeightCm *uint   `json:"height_cm"`
	WeightKg *uint   `json:"weight_kg"`
	Avatar   *string `json:"avatar"`
}

// SessionResponse answers GET /api/session.
type SessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	Profile       *ProfileResponse `json:"profile,omitempty"`
}

// PostResponse is a feed item enriched with its author's display name and avatar.
type PostResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Author    string    `json:"author"`
	Avatar    *string   `json:"avatar"`
	Caption   string    `json:"caption"`
	Hashtags  []string  `json:"hashtags"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) profileResponse(c *fiber.Ctx, user *models.User) *ProfileResponse {
	resp := &ProfileResponse{
		Email:    user.Email,
		Username: user.Username,
	}
	if p := user.Profile; p != nil {
		resp.FullName = p.FullName
		resp.Bio = p.Bio
		resp.Gender = p.Gender
		resp.Age = p.Age
		resp.HeightCm = p.HeightCm
		resp.WeightKg = p.WeightKg
		resp.Avatar = s.mediaURL(c, p.Avatar)
	}
	return resp
}

func (s *Server) postResponse(c *fiber.Ctx, post *models.Post) PostResponse {
	hashtags := post.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	return PostResponse{
		ID:        post.ID,
		UserID:    post.UserID,
		Author:    post.AuthorName(),
		Avatar:    s.mediaURL(c, post.AuthorAvatar()),
		Caption:   post.Caption,
		Hashtags:  hashtags,
		Image:     s.mediaURL(c, post.Image),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

func (s *Server) postResponses(c *fiber.Ctx, posts []*models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		out = append(out, s.postResponse(c, post))
	}
	return out
}
