package server

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"fitcraft/internal/middleware"
	"fitcraft/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters. A zero Limit means "no limit".
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts optional limit and offset query parameters.
func parsePagination(c *fiber.Ctx) Pagination {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		limit = 0
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 404 JSON response and returns errResponseWritten;
// a non-numeric id can never name an existing row.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Invalid ID"})
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	status := models.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// currentUserID returns the session user. Only call it behind middleware.AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := middleware.CurrentUserID(c)
	return userID
}

// mediaURL turns a blob key into an absolute URL. An empty key yields nil.
func (s *Server) mediaURL(c *fiber.Ctx, key string) *string {
	if key == "" {
		return nil
	}
	url := s.blobs.URL(key)
	if strings.HasPrefix(url, "/") {
		url = c.BaseURL() + url
	}
	return &url
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(s.config.SessionTTLHours) * time.Hour),
		Secure:   s.config.IsProduction(),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   s.config.IsProduction(),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
