package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/imei-service/pkg/util"
)

const bearerTokenKey = "auth_bearer_token"

// BearerToken extracts the Authorization bearer credential. Requests without one are
// rejected with 403 before reaching the handler; verification is left to the handler.
func BearerToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authHeader == "" {
			return apperrors.NewUnauthenticated()
		}

		scheme, credentials, found := strings.Cut(authHeader, " ")
		credentials = strings.TrimSpace(credentials)
		if !found || !strings.EqualFold(scheme, "Bearer") || credentials == "" {
			return apperrors.NewUnauthenticated()
		}

		c.Locals(bearerTokenKey, credentials)
		return c.Next()
	}
}

// TokenFromContext returns the raw bearer credential stored by BearerToken.
func TokenFromContext(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals(bearerTokenKey).(string)
	return token, ok && token != ""
}
