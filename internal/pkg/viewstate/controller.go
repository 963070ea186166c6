package viewstate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
)

// Page is the result of loading the rows of a filter.
type Page struct {
	Rows     []Row
	Degraded bool
}

// Loader fetches the rows of a filter.
type Loader interface {
	Load(ctx context.Context, f Filter) (Page, error)
}

// Updater applies provider updates and records them in the audit trail.
type Updater interface {
	UpdateProvider(ctx context.Context, id string, fields map[string]interface{}, actor models.Actor) error
	RecordAction(ctx context.Context, action string, details map[string]interface{}, actor models.Actor) error
}

// Controller applies table events to a session's state. It is not safe for
// concurrent use; each request builds its own from the stored state.
type Controller struct {
	State State
	rows  []Row
}

// NewController resumes a session from its stored state and rows.
func NewController(state State, rows []Row) *Controller {
	if state.SelectedIDs == nil {
		state.SelectedIDs = []string{}
	}
	if state.SortDirection == "" {
		state.SortDirection = Ascending
	}
	if state.ViewMode == "" {
		state.ViewMode = state.Filter().Mode
	}
	return &Controller{State: state, rows: rows}
}

// Rows is the full fetched list in its current order.
func (c *Controller) Rows() []Row {
	return c.rows
}

// SelectFilter switches to the filter with key, resetting search, sort and
// selection, and fetches its rows.
func (c *Controller) SelectFilter(ctx context.Context, key string, loader Loader) error {
	f, ok := LookupFilter(key)
	if !ok {
		return apperrors.NewValidationError("filter", fmt.Sprintf("unknown filter %q", key))
	}

	c.State = State{
		FilterKey:     f.Key,
		SortDirection: Ascending,
		SelectedIDs:   []string{},
		ViewMode:      f.Mode,
	}
	c.rows = nil

	page, err := loader.Load(ctx, f)
	if err != nil {
		return err
	}
	c.rows = page.Rows
	c.State.Degraded = page.Degraded
	return nil
}

// Search sets the search term. The fetched rows are untouched.
func (c *Controller) Search(term string) {
	c.State.SearchTerm = strings.TrimSpace(term)
}

// Visible returns the rows matching the search term, in the current order.
func (c *Controller) Visible() []Row {
	return FilterRows(c.rows, c.State.SearchTerm)
}

// FilterRows keeps the rows whose name or phone contains term, ignoring case.
// The input slice is not modified.
func FilterRows(rows []Row, term string) []Row {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		out := make([]Row, len(rows))
		copy(out, rows)
		return out
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Column("name")), term) ||
			strings.Contains(strings.ToLower(r.Column("phone")), term) {
			out = append(out, r)
		}
	}
	return out
}

// ToggleSort sorts by key, flipping the direction when key is already the
// sort key.
func (c *Controller) ToggleSort(key string) error {
	if !Sortable(c.State.ViewMode, key) {
		return apperrors.NewValidationError("sort", fmt.Sprintf("column %q is not sortable", key))
	}
	if c.State.SortKey == key {
		if c.State.SortDirection == Ascending {
			c.State.SortDirection = Descending
		} else {
			c.State.SortDirection = Ascending
		}
	} else {
		c.State.SortKey = key
		c.State.SortDirection = Ascending
	}
	Sort(c.rows, c.State.SortKey, c.State.SortDirection)
	return nil
}

// Sort orders rows in place by the case-insensitive projection of key.
// Rows with equal projections keep their relative order.
func Sort(rows []Row, key string, dir SortDirection) {
	sort.SliceStable(rows, func(i, j int) bool {
		a := strings.ToLower(rows[i].Column(key))
		b := strings.ToLower(rows[j].Column(key))
		if dir == Descending {
			return a > b
		}
		return a < b
	})
}

// selectable fails unless the table lists providers. Payment, hidden and
// audit views have no selection.
func (c *Controller) selectable() error {
	if c.State.ViewMode != ProviderList {
		return apperrors.NewValidationError("view", fmt.Sprintf("rows cannot be selected in %s", c.State.ViewMode))
	}
	return nil
}

// ToggleRow adds or removes id from the selection.
func (c *Controller) ToggleRow(id string, on bool) error {
	if err := c.selectable(); err != nil {
		return err
	}
	c.setSelected(id, on)
	return nil
}

// ToggleAll sets the selection of every visible row.
func (c *Controller) ToggleAll(on bool) error {
	if err := c.selectable(); err != nil {
		return err
	}
	for _, r := range c.Visible() {
		c.setSelected(r.ID, on)
	}
	return nil
}

func (c *Controller) setSelected(id string, on bool) {
	if on {
		if !c.State.IsSelected(id) {
			c.State.SelectedIDs = append(c.State.SelectedIDs, id)
		}
		return
	}
	kept := c.State.SelectedIDs[:0]
	for _, sel := range c.State.SelectedIDs {
		if sel != id {
			kept = append(kept, sel)
		}
	}
	c.State.SelectedIDs = kept
}

// BulkAction is an action applied to every selected provider.
type BulkAction string

const (
	BulkApprove BulkAction = "approve"
	BulkReject  BulkAction = "reject"
)

func (a BulkAction) fields() (map[string]interface{}, string, error) {
	switch a {
	case BulkApprove:
		return dashboard.ApproveFields(), models.ACTION_BULK_APPROVE, nil
	case BulkReject:
		return dashboard.RejectFields(""), models.ACTION_BULK_REJECT, nil
	}
	return nil, "", apperrors.NewValidationError("action", fmt.Sprintf("unknown bulk action %q", a))
}

// BulkError reports a bulk action that stopped part way.
type BulkError struct {
	Completed []string
	FailedID  string
	Err       error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk update stopped at %s after %d of the selected providers: %v", e.FailedID, len(e.Completed), e.Err)
}

func (e *BulkError) Unwrap() error {
	return e.Err
}

// Bulk applies action to the selected providers one at a time. The first
// failure stops the run; updates already applied stay applied and the
// selection is kept. After a full run one audit entry is written, the
// filter is reloaded and the selection cleared. It returns the number of
// updated providers.
func (c *Controller) Bulk(ctx context.Context, action BulkAction, updater Updater, loader Loader, actor models.Actor) (int, error) {
	if err := c.selectable(); err != nil {
		return 0, err
	}
	fields, auditAction, err := action.fields()
	if err != nil {
		return 0, err
	}
	if len(c.State.SelectedIDs) == 0 {
		return 0, apperrors.NewValidationError("selection", "no providers selected")
	}

	ids := make([]string, len(c.State.SelectedIDs))
	copy(ids, c.State.SelectedIDs)

	completed := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := updater.UpdateProvider(ctx, id, fields, actor); err != nil {
			return len(completed), &BulkError{Completed: completed, FailedID: id, Err: err}
		}
		completed = append(completed, id)
	}

	details := map[string]interface{}{
		"count": len(ids),
		"ids":   ids,
		"admin": actor.Email,
	}
	if err := updater.RecordAction(ctx, auditAction, details, actor); err != nil {
		return len(completed), fmt.Errorf("record bulk action: %w", err)
	}

	c.State.SelectedIDs = []string{}
	if err := c.Reload(ctx, loader); err != nil {
		return len(completed), fmt.Errorf("reload after bulk action: %w", err)
	}
	return len(completed), nil
}

// Reload fetches the rows of the current filter again, keeping the search
// term, sort order and selection.
func (c *Controller) Reload(ctx context.Context, loader Loader) error {
	page, err := loader.Load(ctx, c.State.Filter())
	if err != nil {
		return err
	}
	c.rows = page.Rows
	c.State.Degraded = page.Degraded
	if c.State.SortKey != "" {
		Sort(c.rows, c.State.SortKey, c.State.SortDirection)
	}
	return nil
}
