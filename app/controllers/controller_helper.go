package controllers

import (
	"errors"
	"strings"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
	"github.com/findmyridesa/provider-admin/internal/pkg/usercontext"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewmodel"
	"github.com/findmyridesa/provider-admin/views"
)

// CSRFContextKey is the Locals key the csrf middleware stores its token under.
const CSRFContextKey = "csrf"

// newLayout fills the values shared by every rendered page.
func newLayout(c *fiber.Ctx, page, title string) viewmodel.Layout {
	userCtx := usercontext.GetUserContext(c)
	token, _ := c.Locals(CSRFContextKey).(string)
	return viewmodel.Layout{
		Page:       page,
		Title:      title,
		IsLoggedIn: userCtx.IsLoggedIn,
		IsAdmin:    userCtx.IsAdmin,
		AdminEmail: userCtx.Email,
		CSRF:       token,
		Msg:        flash.Get(c),
	}
}

// currentActor is the admin performing the request.
func currentActor(c *fiber.Ctx) models.Actor {
	return usercontext.GetUserContext(c).Actor()
}

// errorStatus maps a service error to an HTTP status code.
func errorStatus(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrTransport):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// errorCode is the machine readable error name of the JSON API.
func errorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusBadRequest:
		return "invalid_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusBadGateway:
		return "upstream_unavailable"
	case fiber.StatusServiceUnavailable:
		return "unavailable"
	}
	return "internal_error"
}

// publicMessage hides internal details of unexpected failures.
func publicMessage(status int, err error) string {
	if status >= fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		return "Something went wrong. Please try again."
	}
	if status == fiber.StatusBadGateway {
		return "The provider database is currently unreachable."
	}
	return err.Error()
}

func renderError(c *fiber.Ctx, status int, message string) error {
	page := viewmodel.ErrorPage{
		Layout:  newLayout(c, "error", "Error"),
		Code:    status,
		Message: message,
	}
	return render(c, status, page.Layout, views.ErrorIndex(page))
}

// render writes content inside the page shell.
func render(c *fiber.Ctx, status int, l viewmodel.Layout, content templ.Component) error {
	c.Status(status).Type("html", "utf-8")
	return views.Home(l, content).Render(c.Context(), c.Response().BodyWriter())
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   errorCode(status),
		"message": message,
	})
}

func redirectWithError(c *fiber.Ctx, to, message string) error {
	fm := fiber.Map{
		"type":    "error",
		"message": message,
	}
	return flash.WithError(c, fm).Redirect(to, fiber.StatusSeeOther)
}

func redirectWithSuccess(c *fiber.Ctx, to, message string) error {
	fm := fiber.Map{
		"type":    "success",
		"message": message,
	}
	return flash.WithSuccess(c, fm).Redirect(to, fiber.StatusSeeOther)
}

// ErrorHandler renders failed requests as JSON below /admin/api and as the
// error page everywhere else.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := errorStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err))
		}

		message := publicMessage(status, err)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			message = fe.Message
		}

		if strings.HasPrefix(c.Path(), "/admin/api") {
			return jsonError(c, status, message)
		}
		if renderErr := renderError(c, status, message); renderErr != nil {
			return c.Status(status).SendString(message)
		}
		return nil
	}
}
