package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/internal/pkg/session"
	"github.com/findmyridesa/provider-admin/internal/pkg/usercontext"
)

// AdminChecker re-evaluates admin access for a signed-in user.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// RequireAdmin ensures a logged-in admin on web routes. Admin access is
// checked again on every request; users who lost it are signed out.
func RequireAdmin(checker AdminChecker, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userCtx := usercontext.GetUserContext(c)
		if !userCtx.IsLoggedIn {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		ok, err := checker.IsAdmin(c.UserContext(), userCtx.UserID)
		if err != nil {
			log.Error("admin check failed", zap.Uint("user_id", userCtx.UserID), zap.Error(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "admin check unavailable")
		}
		if !ok {
			signOut(c, log)
			return c.Redirect("/login?error=unauthorized", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// RequireAPIAdmin is RequireAdmin for JSON routes: it answers 401 instead of
// redirecting.
func RequireAPIAdmin(checker AdminChecker, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userCtx := usercontext.GetUserContext(c)
		if !userCtx.IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "login required",
			})
		}

		ok, err := checker.IsAdmin(c.UserContext(), userCtx.UserID)
		if err != nil {
			log.Error("admin check failed", zap.Uint("user_id", userCtx.UserID), zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "unavailable",
				"message": "admin check unavailable",
			})
		}
		if !ok {
			signOut(c, log)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "admin role required",
			})
		}
		return c.Next()
	}
}

func signOut(c *fiber.Ctx, log *zap.Logger) {
	sess, err := session.Get(c)
	if err != nil {
		return
	}
	if err := sess.Destroy(); err != nil {
		log.Warn("failed to destroy session", zap.Error(err))
	}
}
