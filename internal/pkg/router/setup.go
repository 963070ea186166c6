package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/findmyridesa/provider-admin/app/controllers"
	"github.com/findmyridesa/provider-admin/internal/pkg/middleware"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter builds the controllers from deps and registers every route.
// The session store must be set before.
func InstallRouter(app *fiber.App, deps controllers.Deps) {
	controllers.InitializeControllers(deps)

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// The API group is registered first so the /admin group middleware never
	// redirects JSON clients to the login page.
	setup(app, NewApiRouter(deps), NewHttpRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
