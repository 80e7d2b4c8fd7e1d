package middleware

import (
	"context"
	"log/slog"
	"strings"

	"fitcraft/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionResolver maps a session token to the user it belongs to.
type SessionResolver interface {
	Lookup(ctx context.Context, token string) (uint, bool, error)
}

// Locals keys set by LoadSession.
const (
	LocalUserID       = "userID"
	LocalSessionToken = "sessionToken"
)

// SessionTokens returns the candidate session tokens in the order they are tried:
// the cookie first, then an "Authorization: Bearer <token>" header.
func SessionTokens(c *fiber.Ctx, cookieName string) []string {
	var tokens []string
	if token := c.Cookies(cookieName); token != "" {
		tokens = append(tokens, token)
	}

	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" && (len(tokens) == 0 || tokens[0] != token) {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// LoadSession resolves the request's session, if any, and stores the user id in
// Locals and the user context. A cookie that no longer resolves does not hide a
// valid bearer token. It never rejects a request; AuthRequired does that.
func LoadSession(resolver SessionResolver, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokens := SessionTokens(c, cookieName)
		if len(tokens) == 0 {
			return c.Next()
		}
		// Logout destroys the first candidate when none resolves.
		c.Locals(LocalSessionToken, tokens[0])

		ctx := c.UserContext()
		for _, token := range tokens {
			userID, ok, err := resolver.Lookup(ctx, token)
			if err != nil {
				Logger.WarnContext(ctx, "session lookup failed", slog.String("error", err.Error()))
				return c.Next()
			}
			if !ok {
				continue
			}

			c.Locals(LocalSessionToken, token)
			c.Locals(LocalUserID, userID)
			c.SetUserContext(context.WithValue(ctx, UserIDKey, userID))
			break
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or false for anonymous requests.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(LocalUserID).(uint)
	return userID, ok && userID != 0
}

// AuthRequired rejects anonymous requests with 401.
func AuthRequired(c *fiber.Ctx) error {
	if _, ok := CurrentUserID(c); !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError("Authentication required"))
	}
	return c.Next()
}
