package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tijara/internal/models"
)

const adminContextKey = "currentAdmin"

// RequireScope loads the authenticated user and checks the admin capability
// once at the boundary. Failures are a blanket forbidden with no detail.
func RequireScope(db *gorm.DB, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusForbidden, "forbidden")
		}

		if !user.HasScope(scope) {
			return fiber.NewError(fiber.StatusForbidden, "forbidden")
		}

		c.Locals(adminContextKey, &user)
		return c.Next()
	}
}

// RequireMasterAdmin restricts a route to master admins.
func RequireMasterAdmin(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusForbidden, "forbidden")
		}

		if !user.IsAdmin || !user.IsMasterAdmin {
			return fiber.NewError(fiber.StatusForbidden, "forbidden")
		}

		c.Locals(adminContextKey, &user)
		return c.Next()
	}
}

// GetCurrentAdmin extracts the admin user loaded by RequireScope.
func GetCurrentAdmin(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(adminContextKey).(*models.User)
	return user, ok
}
