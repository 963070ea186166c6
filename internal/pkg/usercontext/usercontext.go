package usercontext

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/findmyridesa/provider-admin/app/models"
)

// UserContext represents the signed-in admin of a request
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
}

// Actor is the identity recorded on provider updates and audit entries.
func (u UserContext) Actor() models.Actor {
	return models.Actor{ID: strconv.FormatUint(uint64(u.UserID), 10), Email: u.Email}
}

// Set stores the user context on the request.
func Set(c *fiber.Ctx, u UserContext) {
	c.Locals(localsKey, u)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(localsKey).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}
