package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/findmyridesa/provider-admin/app/controllers"
)

type HttpRouter struct {
	deps controllers.Deps
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	group := app.Group("", csrfMiddleware())
	group.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/admin", fiber.StatusSeeOther)
	})

	h.registerAuthRoutes(group)
	h.registerAdminRoutes(group)
}

func NewHttpRouter(deps controllers.Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) registerAuthRoutes(group fiber.Router) {
	group.Get("/login", controllers.HandleLogin)
	group.Post("/login", controllers.HandleLoginSubmit)
	group.Post("/logout", controllers.HandleLogout)
}
