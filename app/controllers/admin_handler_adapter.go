package controllers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/internal/pkg/auth"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
	"github.com/findmyridesa/provider-admin/internal/pkg/documents"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewstate"
)

// Deps are the services the controllers are built from.
type Deps struct {
	Service   *dashboard.Service
	Auth      *auth.Authenticator
	Snapshots *viewstate.SnapshotStore
	Documents documents.Resolver
	Log       *zap.Logger
}

// Logger falls back to a no-op logger.
func (d Deps) Logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func (d Deps) resolver() documents.Resolver {
	if d.Documents == nil {
		return documents.PassThrough{}
	}
	return d.Documents
}

// Global controller instances
var (
	authController     *AuthController
	adminController    *AdminController
	providerController *ProviderController
	apiController      *APIController
)

// InitializeControllers builds the global controllers from deps.
func InitializeControllers(deps Deps) {
	authController = NewAuthController(deps)
	adminController = NewAdminController(deps)
	providerController = NewProviderController(deps)
	apiController = NewAPIController(deps)
}

// Adapter functions used by the router

func HandleLogin(c *fiber.Ctx) error {
	return authController.HandleLogin(c)
}

func HandleLoginSubmit(c *fiber.Ctx) error {
	return authController.HandleLoginSubmit(c)
}

func HandleLogout(c *fiber.Ctx) error {
	return authController.HandleLogout(c)
}

// HandleAdminDashboard - Adapter for the dashboard table
func HandleAdminDashboard(c *fiber.Ctx) error {
	return adminController.HandleDashboard(c)
}

func HandleAdminFilter(c *fiber.Ctx) error {
	return adminController.HandleFilter(c)
}

func HandleAdminSearch(c *fiber.Ctx) error {
	return adminController.HandleSearch(c)
}

func HandleAdminSort(c *fiber.Ctx) error {
	return adminController.HandleSort(c)
}

func HandleAdminSelect(c *fiber.Ctx) error {
	return adminController.HandleSelect(c)
}

func HandleAdminSelectAll(c *fiber.Ctx) error {
	return adminController.HandleSelectAll(c)
}

func HandleAdminBulk(c *fiber.Ctx) error {
	return adminController.HandleBulk(c)
}

func HandleAdminRefresh(c *fiber.Ctx) error {
	return adminController.HandleRefresh(c)
}

// HandleProviderProfile - Adapter for the provider profile page
func HandleProviderProfile(c *fiber.Ctx) error {
	return providerController.HandleProfile(c)
}

func HandleProviderApprove(c *fiber.Ctx) error {
	return providerController.HandleApprove(c)
}

func HandleProviderReject(c *fiber.Ctx) error {
	return providerController.HandleReject(c)
}

func HandleProviderNotes(c *fiber.Ctx) error {
	return providerController.HandleNotes(c)
}

func HandleProviderConfirmPayment(c *fiber.Ctx) error {
	return providerController.HandleConfirmPayment(c)
}

func HandleProviderConfirmSubscription(c *fiber.Ctx) error {
	return providerController.HandleConfirmSubscription(c)
}

// JSON API adapters

func HandleAPIMetrics(c *fiber.Ctx) error {
	return apiController.HandleMetrics(c)
}

func HandleAPIProviders(c *fiber.Ctx) error {
	return apiController.HandleProviders(c)
}

func HandleAPIProvider(c *fiber.Ctx) error {
	return apiController.HandleProvider(c)
}

func HandleAPIProviderReviews(c *fiber.Ctx) error {
	return apiController.HandleProviderReviews(c)
}

func HandleAPIHidden(c *fiber.Ctx) error {
	return apiController.HandleHidden(c)
}

func HandleAPIAudit(c *fiber.Ctx) error {
	return apiController.HandleAudit(c)
}
