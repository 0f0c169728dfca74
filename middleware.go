package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserLocalsKey is where the gate stores the authenticated user on the
// request context.
const UserLocalsKey = "auth_user"

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}

// Protected gates a route behind a valid access token and an active,
// verified account. On success the user lands in the request locals and the
// standard context, ready for downstream business routers.
func (s *Auther) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := BearerToken(c)
		if !ok {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return renderError(c, s.logger, ErrUnauthenticated)
		}

		user, err := s.IdentityFromAccessToken(c.UserContext(), raw)
		if err != nil {
			return renderError(c, s.logger, err)
		}

		c.Locals(UserLocalsKey, user)
		c.SetUserContext(WithContext(c.UserContext(), user))

		return c.Next()
	}
}

// UserFromLocals returns the authenticated user placed by Protected
func UserFromLocals(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(UserLocalsKey).(*User)
	return user, ok
}
