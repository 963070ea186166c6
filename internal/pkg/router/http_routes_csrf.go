package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/findmyridesa/provider-admin/app/controllers"
	"github.com/findmyridesa/provider-admin/internal/pkg/env"
)

// csrfMiddleware protects every form post. The JSON API is read-only and
// skipped.
func csrfMiddleware() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     controllers.CSRFContextKey,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/admin/api") ||
				strings.HasPrefix(c.Path(), "/assets")
		},
	})
}
