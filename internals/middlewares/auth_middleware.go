package middlewares

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"examstore_backend/internals/configs"
	helper "examstore_backend/internals/helpers"
)

// AuthMiddleware validates the bearer JWT and stores user_id on the
// request context.
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, helper.ErrCodeAuth, err.Error())
		}

		secretKey := configs.JWTSecret
		if secretKey == "" {
			log.Println("[AUTH] JWT_SECRET is empty")
			return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "Missing JWT secret")
		}

		claims := jwt.MapClaims{}
		if _, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "unexpected signing method")
			}
			return []byte(secretKey), nil
		}); err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, helper.ErrCodeAuth, "Token parse error")
		}

		if exp, ok := claims["exp"].(float64); ok && time.Now().Unix() > int64(exp) {
			return helper.JsonError(c, fiber.StatusUnauthorized, helper.ErrCodeAuth, "Token expired")
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, helper.ErrCodeAuth, "Invalid subject claim")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

// OptionalAuthMiddleware resolves user_id when a valid token is
// present; anonymous requests pass through untouched.
func OptionalAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return c.Next()
		}
		claims := jwt.MapClaims{}
		if _, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(configs.JWTSecret), nil
		}); err != nil {
			return c.Next()
		}
		if sub, ok := claims["sub"].(string); ok {
			if userID, err := uuid.Parse(sub); err == nil {
				c.Locals("user_id", userID)
			}
		}
		return c.Next()
	}
}

// InternalMiddleware guards worker/internal endpoints with a shared
// token (WORKER_API_TOKEN).
func InternalMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := configs.GetEnv("WORKER_API_TOKEN")
		if expected == "" {
			return helper.JsonError(c, fiber.StatusUnauthorized, helper.ErrCodeAuth, "Internal API disabled")
		}
		token, err := extractBearerToken(c)
		if err != nil || token != expected {
			return helper.JsonError(c, fiber.StatusUnauthorized, helper.ErrCodeAuth, "Invalid worker token")
		}
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	h := c.Get(fiber.HeaderAuthorization)
	if h == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Missing Authorization header")
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Malformed Authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
