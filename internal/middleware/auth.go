package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/skyvault/backend/pkg/logger"
	"github.com/skyvault/backend/pkg/utils"
)

const AuthCookieName = "auth_token"

func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3001,http://127.0.0.1:3001",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
	})
}

// RequireAuth guards every namespace route. The dashboard sends the session
// JWT in an httpOnly cookie; a Bearer header is accepted as well for
// non-browser clients.
func RequireAuth(c *fiber.Ctx) error {
	tokenString := c.Cookies(AuthCookieName)

	if tokenString == "" {
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			trimmed := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if trimmed != authHeader {
				tokenString = trimmed
			}
		}
	}

	if tokenString == "" {
		logger.Warn("auth_missing_token", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if _, err := utils.ValidateToken(tokenString); err != nil {
		logger.Warn("auth_invalid_token", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	return c.Next()
}
