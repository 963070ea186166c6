package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
	"github.com/findmyridesa/provider-admin/internal/pkg/auth"
	"github.com/findmyridesa/provider-admin/internal/pkg/session"
	"github.com/findmyridesa/provider-admin/internal/pkg/usercontext"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewmodel"
	"github.com/findmyridesa/provider-admin/views/auth_views"
)

const loginFailedMessage = "There is a problem with the login process"

// AuthController signs admins in and out.
type AuthController struct {
	auth *auth.Authenticator
	log  *zap.Logger
}

func NewAuthController(deps Deps) *AuthController {
	return &AuthController{auth: deps.Auth, log: deps.Logger()}
}

// HandleLogin renders the login form. Signed-in admins go straight to the
// dashboard.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn && userCtx.IsAdmin {
		return c.Redirect("/admin", fiber.StatusSeeOther)
	}

	page := viewmodel.LoginPage{Layout: newLayout(c, "login", "Admin Login")}
	if c.Query("error") == "unauthorized" {
		page.Error = auth.UnauthorizedMessage
	}
	return render(c, fiber.StatusOK, page.Layout, auth_views.LoginIndex(page))
}

// HandleLoginSubmit checks the credentials and opens an admin session.
func (ac *AuthController) HandleLoginSubmit(c *fiber.Ctx) error {
	var creds auth.Credentials
	if err := c.BodyParser(&creds); err != nil {
		return redirectWithError(c, "/login", loginFailedMessage)
	}

	identity, err := ac.auth.SignIn(c.UserContext(), creds)
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return redirectWithError(c, "/login", loginFailedMessage)
	case errors.Is(err, apperrors.ErrUnauthorized):
		return c.Redirect("/login?error=unauthorized", fiber.StatusSeeOther)
	case err != nil:
		ac.log.Error("sign in failed", zap.Error(err))
		return redirectWithError(c, "/login", "Login is currently unavailable. Please try again later.")
	}

	sess, err := session.Get(c)
	if err != nil {
		ac.log.Error("session unavailable", zap.Error(err))
		return redirectWithError(c, "/login", "Login is currently unavailable. Please try again later.")
	}
	if err := sess.Regenerate(); err != nil {
		ac.log.Warn("failed to regenerate session id", zap.Error(err))
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, identity.UserID)
	sess.Set(usercontext.KeyUserEmail, identity.Email)
	sess.Set(usercontext.KeyUserName, identity.Name)
	sess.Set(usercontext.KeyIsAdmin, identity.IsAdmin)
	if err := sess.Save(); err != nil {
		ac.log.Error("failed to save session", zap.Error(err))
		return redirectWithError(c, "/login", "Login is currently unavailable. Please try again later.")
	}

	ac.log.Info("admin signed in", zap.Uint("user_id", identity.UserID), zap.String("email", identity.Email))
	return redirectWithSuccess(c, "/admin", "Welcome back, "+identity.Name+"!")
}

// HandleLogout ends the session.
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	sess, err := session.Get(c)
	if err != nil {
		return redirectWithSuccess(c, "/login", "You have been logged out.")
	}
	if err := sess.Destroy(); err != nil {
		ac.log.Warn("failed to destroy session", zap.Error(err))
		return redirectWithError(c, "/login", "Logout failed. Please try again.")
	}
	return redirectWithSuccess(c, "/login", "You have been logged out.")
}
