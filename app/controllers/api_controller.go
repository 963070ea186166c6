package controllers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
	"github.com/findmyridesa/provider-admin/internal/pkg/documents"
	"github.com/findmyridesa/provider-admin/internal/pkg/providerstatus"
)

const (
	defaultProviderLimit = 50
	defaultAuditLimit    = 100
)

// APIController serves the read-only JSON API below /admin/api.
type APIController struct {
	service   *dashboard.Service
	documents documents.Resolver
	validate  *validator.Validate
	log       *zap.Logger
}

func NewAPIController(deps Deps) *APIController {
	return &APIController{
		service:   deps.Service,
		documents: deps.resolver(),
		validate:  validator.New(),
		log:       deps.Logger(),
	}
}

type providerListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=pending active rejected"`
	Limit  int64  `query:"limit" validate:"omitempty,min=1,max=500"`
}

type reviewQuery struct {
	Cursor   string `query:"cursor"`
	PageSize int64  `query:"pageSize" validate:"omitempty,min=1,max=50"`
}

type auditQuery struct {
	Limit int64 `query:"limit" validate:"omitempty,min=1,max=500"`
}

// ComplianceJSON is the evaluated expiry state of one document.
type ComplianceJSON struct {
	Document      string                        `json:"document"`
	ExpiryDate    time.Time                     `json:"expiryDate"`
	DaysRemaining int                           `json:"daysRemaining"`
	Band          providerstatus.ComplianceBand `json:"band"`
	Label         string                        `json:"label"`
}

// ProviderDetailJSON is a provider with its derived status values.
type ProviderDetailJSON struct {
	Provider     *models.Provider                  `json:"provider"`
	Subscription providerstatus.SubscriptionStatus `json:"subscription"`
	Availability providerstatus.AvailabilityStatus `json:"availability"`
	Compliance   []ComplianceJSON                  `json:"compliance"`
	Documents    []documents.Item                  `json:"documents"`
}

// parseQuery binds and validates the query string into dst.
func (ac *APIController) parseQuery(c *fiber.Ctx, dst interface{}) error {
	if err := c.QueryParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed query string")
	}
	if err := ac.validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// fail answers with the status matching err.
func (ac *APIController) fail(c *fiber.Ctx, op string, err error) error {
	status := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		ac.log.Error("api request failed", zap.String("op", op), zap.Error(err))
	}
	return jsonError(c, status, publicMessage(status, err))
}

func (ac *APIController) HandleMetrics(c *fiber.Ctx) error {
	m, err := ac.service.FetchMetrics(c.UserContext())
	if err != nil {
		return ac.fail(c, "metrics", err)
	}
	return c.JSON(m)
}

func (ac *APIController) HandleProviders(c *fiber.Ctx) error {
	var q providerListQuery
	if err := ac.parseQuery(c, &q); err != nil {
		return err
	}
	if q.Limit == 0 {
		q.Limit = defaultProviderLimit
	}

	res, err := ac.service.FetchRecentProviders(c.UserContext(), q.Limit, q.Status)
	if err != nil {
		return ac.fail(c, "providers", err)
	}
	return c.JSON(res)
}

func (ac *APIController) HandleProvider(c *fiber.Ctx) error {
	ctx := c.UserContext()
	p, err := ac.service.FetchProviderByID(ctx, c.Params("id"))
	if err != nil {
		return ac.fail(c, "provider", err)
	}

	now := ac.service.Now()
	detail := ProviderDetailJSON{
		Provider:     p,
		Subscription: providerstatus.ProviderSubscription(now, p),
		Availability: providerstatus.Availability(p.AvailabilityStatus),
		Compliance:   []ComplianceJSON{},
	}
	for _, w := range providerstatus.ComplianceWarnings(now, p) {
		detail.Compliance = append(detail.Compliance, ComplianceJSON{
			Document:      w.Document,
			ExpiryDate:    w.ExpiryDate,
			DaysRemaining: w.DaysRemaining,
			Band:          w.Band,
			Label:         w.Label(),
		})
	}

	detail.Documents, err = documents.List(ctx, p.Documents, ac.documents)
	if err != nil {
		return ac.fail(c, "provider documents", err)
	}
	return c.JSON(detail)
}

func (ac *APIController) HandleProviderReviews(c *fiber.Ctx) error {
	var q reviewQuery
	if err := ac.parseQuery(c, &q); err != nil {
		return err
	}

	page, err := ac.service.FetchPaginatedReviews(c.UserContext(), c.Params("id"), q.PageSize, q.Cursor)
	if err != nil {
		return ac.fail(c, "reviews", err)
	}
	return c.JSON(page)
}

func (ac *APIController) HandleHidden(c *fiber.Ctx) error {
	entries, err := ac.service.HiddenProviders(c.UserContext())
	if err != nil {
		return ac.fail(c, "hidden providers", err)
	}
	return c.JSON(fiber.Map{"providers": entries, "count": len(entries)})
}

func (ac *APIController) HandleAudit(c *fiber.Ctx) error {
	var q auditQuery
	if err := ac.parseQuery(c, &q); err != nil {
		return err
	}
	if q.Limit == 0 {
		q.Limit = defaultAuditLimit
	}

	logs, err := ac.service.RecentAuditLog(c.UserContext(), q.Limit)
	if err != nil {
		return ac.fail(c, "audit log", err)
	}
	return c.JSON(fiber.Map{"entries": logs})
}
