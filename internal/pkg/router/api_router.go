package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/findmyridesa/provider-admin/app/controllers"
	"github.com/findmyridesa/provider-admin/internal/pkg/env"
	"github.com/findmyridesa/provider-admin/internal/pkg/middleware"
)

type ApiRouter struct {
	deps controllers.Deps
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/admin/api",
		middleware.RequireAPIAdmin(h.deps.Auth, h.deps.Logger()),
		limiter.New(limiter.Config{
			Max:        env.GetEnvInt("API_RATE_LIMIT", 120),
			Expiration: 1 * time.Minute,
		}),
	)
	api.Get("/metrics", controllers.HandleAPIMetrics)
	api.Get("/providers", controllers.HandleAPIProviders)
	api.Get("/providers/:id", controllers.HandleAPIProvider)
	api.Get("/providers/:id/reviews", controllers.HandleAPIProviderReviews)
	api.Get("/hidden", controllers.HandleAPIHidden)
	api.Get("/audit", controllers.HandleAPIAudit)
}

func NewApiRouter(deps controllers.Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}
