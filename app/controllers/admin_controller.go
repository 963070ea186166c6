package controllers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
	"github.com/findmyridesa/provider-admin/internal/pkg/session"
	"github.com/findmyridesa/provider-admin/internal/pkg/usercontext"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewmodel"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewstate"
	"github.com/findmyridesa/provider-admin/views/admin_views"
)

const selectionUnavailable = "Selection is only available in provider lists."

// AdminController serves the dashboard table. The table state lives in the
// session and the fetched rows in the snapshot store, so search, sort and
// selection never hit the provider database.
type AdminController struct {
	service   *dashboard.Service
	loader    viewstate.Loader
	snapshots *viewstate.SnapshotStore
	log       *zap.Logger
}

// NewAdminController creates a new admin controller with its dependencies
func NewAdminController(deps Deps) *AdminController {
	return &AdminController{
		service:   deps.Service,
		loader:    viewstate.NewServiceLoader(deps.Service),
		snapshots: deps.Snapshots,
		log:       deps.Logger(),
	}
}

// tableView is the table of one request.
type tableView struct {
	ctrl *viewstate.Controller
	sess *fibersession.Session
	// loadErr is set when the rows could not be fetched.
	loadErr error
}

// loadView resumes the table of the session, fetching the rows again when
// no snapshot is stored. With resume false the rows are left empty for the
// caller to fetch.
func (ac *AdminController) loadView(c *fiber.Ctx, resume bool) (*tableView, error) {
	sess, err := session.Get(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "session store unavailable")
	}

	state := viewstate.DefaultState()
	if raw, ok := sess.Get(usercontext.KeyViewState).(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			ac.log.Warn("discarding unreadable view state", zap.Error(err))
			state = viewstate.DefaultState()
		}
	}

	view := &tableView{ctrl: viewstate.NewController(state, nil), sess: sess}
	if !resume {
		return view, nil
	}

	ctx := c.UserContext()
	rows, found, err := ac.snapshots.Load(ctx, sess.ID())
	if err != nil {
		ac.log.Warn("failed to read row snapshot", zap.Error(err))
	}
	if found {
		view.ctrl = viewstate.NewController(state, rows)
		return view, nil
	}
	view.loadErr = view.ctrl.Reload(ctx, ac.loader)
	return view, nil
}

// saveView stores the table state and rows for the next request.
func (ac *AdminController) saveView(c *fiber.Ctx, view *tableView) error {
	raw, err := json.Marshal(view.ctrl.State)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	if view.loadErr != nil {
		if err := ac.snapshots.Delete(ctx, view.sess.ID()); err != nil {
			ac.log.Warn("failed to drop row snapshot", zap.Error(err))
		}
	} else if err := ac.snapshots.Save(ctx, view.sess.ID(), view.ctrl.Rows()); err != nil {
		ac.log.Warn("failed to store row snapshot", zap.Error(err))
	}
	view.sess.Set(usercontext.KeyViewState, string(raw))
	return view.sess.Save()
}

// finish saves the view and redirects back to the table.
func (ac *AdminController) finish(c *fiber.Ctx, view *tableView) error {
	if err := ac.saveView(c, view); err != nil {
		ac.log.Error("failed to save view state", zap.Error(err))
		return redirectWithError(c, "/admin", "Your table settings could not be saved.")
	}
	return c.Redirect("/admin", fiber.StatusSeeOther)
}

// HandleDashboard renders the metrics and the provider table.
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	view, err := ac.loadView(c, true)
	if err != nil {
		return err
	}

	state := view.ctrl.State
	page := viewmodel.NewDashboardPage(newLayout(c, "dashboard", "Dashboard"), state, view.ctrl.Visible())
	if view.loadErr != nil {
		ac.log.Error("failed to load providers", zap.String("filter", state.FilterKey), zap.Error(view.loadErr))
		page.LoadError = "Error loading data. Please refresh the page."
	}

	m, err := ac.service.FetchMetrics(c.UserContext())
	if err != nil {
		ac.log.Error("failed to fetch metrics", zap.Error(err))
		page.MetricsError = "Metrics are currently unavailable."
	} else {
		page.Metrics = &m
	}

	if err := ac.saveView(c, view); err != nil {
		ac.log.Warn("failed to save view state", zap.Error(err))
	}
	return render(c, fiber.StatusOK, page.Layout, admin_views.DashboardIndex(page))
}

// HandleFilter switches the sidebar filter and fetches its rows.
func (ac *AdminController) HandleFilter(c *fiber.Ctx) error {
	view, err := ac.loadView(c, false)
	if err != nil {
		return err
	}

	err = view.ctrl.SelectFilter(c.UserContext(), c.Params("key"), ac.loader)
	if errors.Is(err, apperrors.ErrValidation) {
		return redirectWithError(c, "/admin", "Unknown filter.")
	}
	view.loadErr = err
	return ac.finish(c, view)
}

// HandleRefresh fetches the rows of the current filter again.
func (ac *AdminController) HandleRefresh(c *fiber.Ctx) error {
	view, err := ac.loadView(c, false)
	if err != nil {
		return err
	}
	view.loadErr = view.ctrl.Reload(c.UserContext(), ac.loader)
	ac.service.InvalidateMetrics(c.UserContext())
	return ac.finish(c, view)
}

// HandleSearch narrows the visible rows by name or phone number.
func (ac *AdminController) HandleSearch(c *fiber.Ctx) error {
	view, err := ac.loadView(c, true)
	if err != nil {
		return err
	}
	view.ctrl.Search(c.Query("q"))
	return ac.finish(c, view)
}

// HandleSort sorts by the column, toggling the direction when it is
// already the sort column.
func (ac *AdminController) HandleSort(c *fiber.Ctx) error {
	view, err := ac.loadView(c, true)
	if err != nil {
		return err
	}
	if err := view.ctrl.ToggleSort(c.Params("key")); err != nil {
		return redirectWithError(c, "/admin", "This column cannot be sorted.")
	}
	return ac.finish(c, view)
}

// HandleSelect adds a row to or removes it from the selection.
func (ac *AdminController) HandleSelect(c *fiber.Ctx) error {
	view, err := ac.loadView(c, true)
	if err != nil {
		return err
	}
	if err := view.ctrl.ToggleRow(c.Params("id"), c.FormValue("on") == "true"); err != nil {
		return redirectWithError(c, "/admin", selectionUnavailable)
	}
	return ac.finish(c, view)
}

// HandleSelectAll selects or clears every visible row.
func (ac *AdminController) HandleSelectAll(c *fiber.Ctx) error {
	view, err := ac.loadView(c, true)
	if err != nil {
		return err
	}
	if err := view.ctrl.ToggleAll(c.FormValue("on") == "true"); err != nil {
		return redirectWithError(c, "/admin", selectionUnavailable)
	}
	return ac.finish(c, view)
}

// HandleBulk applies approve or reject to every selected provider.
func (ac *AdminController) HandleBulk(c *fiber.Ctx) error {
	view, err := ac.loadView(c, true)
	if err != nil {
		return err
	}
	if view.loadErr != nil {
		return redirectWithError(c, "/admin", "Error loading data. Please refresh the page.")
	}

	action := viewstate.BulkAction(c.Params("action"))
	userCtx := usercontext.GetUserContext(c)
	n, err := view.ctrl.Bulk(c.UserContext(), action, ac.service, ac.loader, userCtx.Actor())

	var (
		bulkErr    *viewstate.BulkError
		invalidErr *apperrors.ValidationError
	)
	switch {
	case err == nil:
		ac.log.Info("bulk action applied",
			zap.String("action", string(action)),
			zap.Int("count", n),
			zap.String("admin", userCtx.Email))
		if err := ac.saveView(c, view); err != nil {
			ac.log.Warn("failed to save view state", zap.Error(err))
		}
		return redirectWithSuccess(c, "/admin", fmt.Sprintf("%d providers updated (%s).", n, action))
	case errors.As(err, &invalidErr):
		switch invalidErr.Field {
		case "selection":
			return redirectWithError(c, "/admin", "Select at least one provider first.")
		case "view":
			return redirectWithError(c, "/admin", selectionUnavailable)
		}
		return redirectWithError(c, "/admin", "Unknown bulk action.")
	case errors.As(err, &bulkErr):
		ac.log.Error("bulk action stopped",
			zap.String("action", string(action)),
			zap.Strings("completed", bulkErr.Completed),
			zap.String("failed_id", bulkErr.FailedID),
			zap.Error(bulkErr.Err))
		if err := ac.saveView(c, view); err != nil {
			ac.log.Warn("failed to save view state", zap.Error(err))
		}
		return redirectWithError(c, "/admin", fmt.Sprintf("Error performing bulk update: %d providers were updated before provider %s failed.", len(bulkErr.Completed), bulkErr.FailedID))
	}

	// Every update went through; the audit entry or the reload failed.
	ac.log.Error("bulk action incomplete", zap.String("action", string(action)), zap.Error(err))
	view.loadErr = err
	if err := ac.saveView(c, view); err != nil {
		ac.log.Warn("failed to save view state", zap.Error(err))
	}
	return redirectWithError(c, "/admin", fmt.Sprintf("%d providers updated, but finishing the bulk action failed.", n))
}
