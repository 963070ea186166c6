package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/findmyridesa/provider-admin/internal/pkg/session"
	"github.com/findmyridesa/provider-admin/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the user context for every request from the
// session. Requests without a signed-in session get an anonymous context.
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.Get(c)
	if err != nil {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	email, _ := sess.Get(usercontext.KeyUserEmail).(string)
	name, _ := sess.Get(usercontext.KeyUserName).(string)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

	usercontext.Set(c, usercontext.UserContext{
		UserID:     userID,
		Email:      email,
		Name:       name,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	})
	return c.Next()
}
