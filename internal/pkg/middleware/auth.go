package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/posterdeck/posterdeck/app/models"
	"github.com/posterdeck/posterdeck/internal/pkg/database"
)

// UserKey is the fiber locals key holding the authenticated *models.User.
const UserKey = "AUTH_USER"

// RequireAuth authenticates requests carrying a user access token and
// rejects the rest.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolveUser(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Authentication failed"})
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing or invalid authentication"})
		}
		if !user.IsActive() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "User inactive"})
		}
		c.Locals(UserKey, user)
		return c.Next()
	}
}

// OptionalAuth resolves the user when a token is present but lets
// anonymous requests through. Advertisement checkouts work logged out.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolveUser(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Authentication failed"})
		}
		if user != nil && user.IsActive() {
			c.Locals(UserKey, user)
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user set by the auth middleware,
// or nil for anonymous requests.
func CurrentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals(UserKey).(*models.User); ok {
		return user
	}
	return nil
}

func resolveUser(c *fiber.Ctx) (*models.User, error) {
	token := extractAccessToken(c)
	if token == "" {
		return nil, nil
	}

	db := database.GetDB()
	if db == nil {
		log.Error("auth middleware: database unavailable")
		return nil, errors.New("database unavailable")
	}

	var user models.User
	if err := db.Where("access_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Errorf("auth middleware: token lookup failed: %v", err)
		return nil, err
	}
	return &user, nil
}

func extractAccessToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.Cookies("access_token"))
}
