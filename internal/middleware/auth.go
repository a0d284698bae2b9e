package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/truenumber/internal/services"
)

const claimsContextKey = "currentClaims"

// AuthMiddleware validates bearer access tokens and loads the verified
// claims into the request context.
func AuthMiddleware(tokens *services.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "access token required")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := tokens.VerifyAccessToken(parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(claimsContextKey, claims)
		return c.Next()
	}
}

// CurrentClaims extracts the authenticated token claims from context.
func CurrentClaims(c *fiber.Ctx) (*services.TokenClaims, bool) {
	claims, ok := c.Locals(claimsContextKey).(*services.TokenClaims)
	return claims, ok
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	claims, ok := CurrentClaims(c)
	if !ok {
		return uuid.Nil, false
	}

	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
