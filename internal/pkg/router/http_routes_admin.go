package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/findmyridesa/provider-admin/app/controllers"
	"github.com/findmyridesa/provider-admin/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(group fiber.Router) {
	adminGroup := group.Group("/admin", middleware.RequireAdmin(h.deps.Auth, h.deps.Logger()))
	adminGroup.Get("/", controllers.HandleAdminDashboard)

	// Table state
	adminGroup.Get("/filter/:key", controllers.HandleAdminFilter)
	adminGroup.Get("/search", controllers.HandleAdminSearch)
	adminGroup.Get("/sort/:key", controllers.HandleAdminSort)
	adminGroup.Post("/refresh", controllers.HandleAdminRefresh)
	adminGroup.Post("/select-all", controllers.HandleAdminSelectAll)
	adminGroup.Post("/select/:id", controllers.HandleAdminSelect)
	adminGroup.Post("/bulk/:action", controllers.HandleAdminBulk)

	// Provider profile
	adminGroup.Get("/providers/:id", controllers.HandleProviderProfile)
	adminGroup.Post("/providers/:id/approve", controllers.HandleProviderApprove)
	adminGroup.Post("/providers/:id/reject", controllers.HandleProviderReject)
	adminGroup.Post("/providers/:id/notes", controllers.HandleProviderNotes)
	adminGroup.Post("/providers/:id/confirm-payment", controllers.HandleProviderConfirmPayment)
	adminGroup.Post("/providers/:id/confirm-subscription", controllers.HandleProviderConfirmSubscription)
}
