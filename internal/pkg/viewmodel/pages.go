package viewmodel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
	"github.com/findmyridesa/provider-admin/internal/pkg/documents"
	"github.com/findmyridesa/provider-admin/internal/pkg/providerstatus"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewstate"
)

const (
	NotAvailable = "N/A"
	dateLayout   = "2 January 2006"
	stampLayout  = "2006-01-02 15:04"
)

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// FormatDate renders a date the way the dashboard shows join dates.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	return t.Format(dateLayout)
}

// TableRow is one rendered row of the dashboard table.
type TableRow struct {
	ID       string
	Selected bool

	Name          string
	Phone         string
	Area          string
	Joined        string
	Status        string
	PaymentStatus string
	Source        models.Source
	PaymentType   string
	Amount        string
	Reasons       []string

	Action    string
	Admin     string
	Timestamp string
	Details   string
}

// Column is one sortable table header.
type Column struct {
	Key       string
	Label     string
	Active    bool
	Direction viewstate.SortDirection
}

// Arrow marks the active sort column with its direction.
func (c Column) Arrow() string {
	if !c.Active {
		return ""
	}
	if c.Direction == viewstate.Ascending {
		return " ▲"
	}
	return " ▼"
}

var columnLabels = map[string]string{
	"name":      "Provider Name",
	"area":      "Service Area",
	"source":    "Source",
	"payment":   "Payment",
	"status":    "Status",
	"joined":    "Joined",
	"phone":     "Phone Number",
	"type":      "Payment Type",
	"amount":    "Amount",
	"reasons":   "Hidden Because",
	"action":    "Action",
	"admin":     "Admin",
	"timestamp": "When",
}

// DashboardPage is the data of the main dashboard page.
type DashboardPage struct {
	Layout
	Filters      []viewstate.Filter
	Filter       viewstate.Filter
	State        viewstate.State
	Metrics      *dashboard.Metrics
	MetricsError string
	Columns      []Column
	Rows         []TableRow
	LoadError    string
	EmptyMessage string
	AllSelected  bool
}

// Is reports whether the table is in the given view mode.
func (p DashboardPage) Is(mode viewstate.ViewMode) bool {
	return p.State.ViewMode == mode
}

// NewDashboardPage builds the page from the session state and its visible rows.
func NewDashboardPage(layout Layout, state viewstate.State, visible []viewstate.Row) DashboardPage {
	f := state.Filter()
	page := DashboardPage{
		Layout:       layout,
		Filters:      viewstate.Filters,
		Filter:       f,
		State:        state,
		Rows:         make([]TableRow, 0, len(visible)),
		EmptyMessage: EmptyMessage(f, state.SearchTerm),
		AllSelected:  len(visible) > 0,
	}

	for _, key := range viewstate.SortKeys[state.ViewMode] {
		page.Columns = append(page.Columns, Column{
			Key:       key,
			Label:     columnLabels[key],
			Active:    state.SortKey == key,
			Direction: state.SortDirection,
		})
	}

	for _, r := range visible {
		row := NewTableRow(r)
		row.Selected = state.IsSelected(r.ID)
		if !row.Selected {
			page.AllSelected = false
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}

// NewTableRow converts a fetched row into display strings.
func NewTableRow(r viewstate.Row) TableRow {
	if r.Log != nil {
		return TableRow{
			ID:        r.ID,
			Action:    r.Log.Action,
			Admin:     orNA(r.Log.AdminEmail),
			Timestamp: r.Log.Timestamp.Format(stampLayout),
			Details:   FormatDetails(r.Log.Details),
		}
	}
	p := r.Provider
	if p == nil {
		return TableRow{ID: r.ID}
	}
	return TableRow{
		ID:            r.ID,
		Name:          orNA(p.DisplayName),
		Phone:         orNA(p.Phone),
		Area:          orNA(p.ServiceAreaLabel),
		Joined:        FormatDate(p.JoinedAt),
		Status:        p.Status,
		PaymentStatus: p.PaymentStatus,
		Source:        p.Source,
		PaymentType:   viewstate.PaymentType(p),
		Amount:        viewstate.PaymentAmount(p),
		Reasons:       r.Reasons,
	}
}

// FormatDetails renders audit details as "key: value" pairs ordered by key.
func FormatDetails(details map[string]interface{}) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, details[k]))
	}
	return strings.Join(parts, ", ")
}

// EmptyMessage is shown when the table has no rows.
func EmptyMessage(f viewstate.Filter, term string) string {
	if term != "" {
		if f.Mode == viewstate.PaymentList {
			return fmt.Sprintf("No payments found matching %q", term)
		}
		return fmt.Sprintf("No providers found matching %q", term)
	}
	switch f.Mode {
	case viewstate.PaymentList:
		return "No payment records found."
	case viewstate.HiddenList:
		return "Every provider is publicly listed."
	case viewstate.AuditList:
		return "No admin activity recorded yet."
	}
	if f.Status != "" {
		return "No providers found with status: " + strings.ToUpper(f.Status)
	}
	return "No providers found in the database."
}

// ProfilePage is the data of the provider profile page.
type ProfilePage struct {
	Layout
	Provider     *models.Provider
	Name         string
	Email        string
	Phone        string
	Area         string
	Joined       string
	SourceType   string
	ReferredBy   string
	IsReferral   bool
	Subscription providerstatus.SubscriptionStatus
	SubEnd       string
	GraceEnd     string
	Warnings     []providerstatus.ComplianceWarning
	Documents    []documents.Item
	DocError     string
	Reviews      []ReviewView
	ReviewCursor string
	HasMore      bool
	ReviewError  string
}

// ReviewView is a review prepared for display.
type ReviewView struct {
	Stars    int
	Comment  string
	Date     string
	Response string
}

// NewProfilePage builds the profile page of p evaluated at now.
func NewProfilePage(layout Layout, p *models.Provider, now time.Time) ProfilePage {
	return ProfilePage{
		Layout:       layout,
		Provider:     p,
		Name:         firstOr(p.DisplayName, "Unnamed Provider"),
		Email:        orNA(p.Email),
		Phone:        orNA(p.Phone),
		Area:         orNA(p.ServiceAreaLabel),
		Joined:       FormatDate(p.JoinedAt),
		SourceType:   p.Source.Type,
		ReferredBy:   p.Source.ReferredName,
		IsReferral:   p.Source.IsReferral(),
		Subscription: providerstatus.ProviderSubscription(now, p),
		SubEnd:       FormatDate(p.SubscriptionEndDate),
		GraceEnd:     FormatDate(p.GracePeriodEndDate),
		Warnings:     providerstatus.ComplianceWarnings(now, p),
	}
}

// SetReviews attaches a page of reviews.
func (pp *ProfilePage) SetReviews(page dashboard.ReviewPage) {
	pp.Reviews = make([]ReviewView, 0, len(page.Reviews))
	for _, r := range page.Reviews {
		rv := ReviewView{
			Stars:   r.Stars(),
			Comment: r.Comment,
			Date:    FormatDate(&r.CreatedAt),
		}
		if r.Response != nil {
			rv.Response = r.Response.Text
		}
		pp.Reviews = append(pp.Reviews, rv)
	}
	pp.ReviewCursor = page.Cursor
	pp.HasMore = page.HasMore
}

func firstOr(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
