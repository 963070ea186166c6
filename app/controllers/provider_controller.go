package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
	"github.com/findmyridesa/provider-admin/internal/pkg/documents"
	"github.com/findmyridesa/provider-admin/internal/pkg/session"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewmodel"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewstate"
	"github.com/findmyridesa/provider-admin/views/admin_views"
)

// ProviderController serves the provider profile and its actions.
type ProviderController struct {
	service   *dashboard.Service
	documents documents.Resolver
	snapshots *viewstate.SnapshotStore
	log       *zap.Logger
}

func NewProviderController(deps Deps) *ProviderController {
	return &ProviderController{
		service:   deps.Service,
		documents: deps.resolver(),
		snapshots: deps.Snapshots,
		log:       deps.Logger(),
	}
}

// HandleProfile renders one provider with documents, compliance state and a
// page of reviews.
func (pc *ProviderController) HandleProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	p, err := pc.service.FetchProviderByID(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return renderError(c, fiber.StatusNotFound, "Provider not found.")
	}
	if err != nil {
		pc.log.Error("failed to load provider", zap.String("provider_id", id), zap.Error(err))
		return renderError(c, fiber.StatusBadGateway, "Error loading provider data.")
	}

	page := viewmodel.NewProfilePage(newLayout(c, "profile", p.DisplayName), p, pc.service.Now())

	docs, err := documents.List(ctx, p.Documents, pc.documents)
	if err != nil {
		pc.log.Warn("failed to resolve documents", zap.String("provider_id", id), zap.Error(err))
		page.DocError = "Some documents could not be loaded."
	}
	page.Documents = docs

	reviews, err := pc.service.FetchPaginatedReviews(ctx, id, dashboard.DefaultReviewPageSize, c.Query("cursor"))
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		page.ReviewError = "Invalid review page."
	case err != nil:
		pc.log.Warn("failed to load reviews", zap.String("provider_id", id), zap.Error(err))
		page.ReviewError = "Reviews could not be loaded."
	default:
		page.SetReviews(reviews)
	}

	return render(c, fiber.StatusOK, page.Layout, admin_views.ProfileIndex(page))
}

func profileURL(id string) string {
	return "/admin/providers/" + id
}

// forgetRows drops the table rows of the session so the dashboard fetches
// the edited provider again.
func (pc *ProviderController) forgetRows(c *fiber.Ctx) {
	if pc.snapshots == nil {
		return
	}
	sess, err := session.Get(c)
	if err != nil {
		pc.log.Warn("failed to open session", zap.Error(err))
		return
	}
	if err := pc.snapshots.Delete(c.UserContext(), sess.ID()); err != nil {
		pc.log.Warn("failed to drop row snapshot", zap.Error(err))
	}
}

// mutationResult redirects back to the profile with a notice for err.
func (pc *ProviderController) mutationResult(c *fiber.Ctx, id, action string, err error, success string) error {
	if err == nil {
		pc.log.Info("provider updated",
			zap.String("provider_id", id),
			zap.String("action", action),
			zap.String("admin", currentActor(c).Email))
		pc.forgetRows(c)
		return redirectWithSuccess(c, profileURL(id), success)
	}

	var invalid *apperrors.ValidationError
	switch {
	case errors.As(err, &invalid) && invalid.Field == "reason":
		return redirectWithError(c, profileURL(id), "Please provide a reason for rejection.")
	case errors.As(err, &invalid):
		return redirectWithError(c, profileURL(id), invalid.Message)
	case errors.Is(err, apperrors.ErrNotFound):
		return redirectWithError(c, "/admin", "Provider not found.")
	}
	pc.log.Error("provider update failed", zap.String("provider_id", id), zap.String("action", action), zap.Error(err))
	return redirectWithError(c, profileURL(id), "Error updating provider. Please try again.")
}

func (pc *ProviderController) HandleApprove(c *fiber.Ctx) error {
	id := c.Params("id")
	err := pc.service.Approve(c.UserContext(), id, currentActor(c))
	return pc.mutationResult(c, id, "approve", err, "Provider approved.")
}

func (pc *ProviderController) HandleReject(c *fiber.Ctx) error {
	id := c.Params("id")
	err := pc.service.Reject(c.UserContext(), id, c.FormValue("reason"), currentActor(c))
	return pc.mutationResult(c, id, "reject", err, "Provider rejected.")
}

func (pc *ProviderController) HandleNotes(c *fiber.Ctx) error {
	id := c.Params("id")
	err := pc.service.SaveAdminNotes(c.UserContext(), id, c.FormValue("notes"), currentActor(c))
	return pc.mutationResult(c, id, "notes", err, "Notes saved.")
}

func (pc *ProviderController) HandleConfirmPayment(c *fiber.Ctx) error {
	id := c.Params("id")
	err := pc.service.ConfirmRegistrationPayment(c.UserContext(), id, currentActor(c))
	return pc.mutationResult(c, id, "confirm_payment", err, "Registration payment confirmed.")
}

func (pc *ProviderController) HandleConfirmSubscription(c *fiber.Ctx) error {
	id := c.Params("id")
	err := pc.service.ConfirmSubscriptionPayment(c.UserContext(), id, currentActor(c))
	return pc.mutationResult(c, id, "confirm_subscription", err, "Monthly subscription confirmed.")
}
