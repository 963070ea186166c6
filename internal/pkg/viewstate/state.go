// Package viewstate holds the dashboard table state of one admin session:
// the active filter, search term, sort order and row selection, together
// with the rows fetched for the filter.
package viewstate

import (
	"strings"
	"time"

	"github.com/findmyridesa/provider-admin/app/models"
)

// ViewMode decides the shape of the rendered table.
type ViewMode string

const (
	ProviderList ViewMode = "provider-list"
	PaymentList  ViewMode = "payment-list"
	HiddenList   ViewMode = "hidden-list"
	AuditList    ViewMode = "audit-list"
)

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Filter is one sidebar entry.
type Filter struct {
	Key        string
	Title      string
	TableTitle string
	// Status scopes the fetch; empty means every provider.
	Status string
	Limit  int64
	Mode   ViewMode
}

const DefaultFilterKey = "dashboard"

// Filters lists the sidebar entries in display order.
var Filters = []Filter{
	{Key: "dashboard", Title: "Overview", TableTitle: "Recent Provider Registrations", Limit: 50, Mode: ProviderList},
	{Key: "pending", Title: "Pending Providers", TableTitle: "Providers Awaiting Approval", Status: models.PROVIDER_STATUS_PENDING, Limit: 20, Mode: ProviderList},
	{Key: "active", Title: "Active Providers", TableTitle: "Live Service Providers", Status: models.PROVIDER_STATUS_ACTIVE, Limit: 20, Mode: ProviderList},
	{Key: "payments", Title: "Payments", TableTitle: "Financial Overview", Limit: 100, Mode: PaymentList},
	{Key: "hidden", Title: "Hidden Providers", TableTitle: "Providers Not Listed Publicly", Mode: HiddenList},
	{Key: "audit", Title: "Audit Log", TableTitle: "Recent Admin Activity", Limit: 100, Mode: AuditList},
}

// LookupFilter finds a sidebar entry by key.
func LookupFilter(key string) (Filter, bool) {
	for _, f := range Filters {
		if f.Key == key {
			return f, true
		}
	}
	return Filter{}, false
}

// State is the serializable part of the dashboard table.
type State struct {
	FilterKey     string        `json:"filterKey"`
	SearchTerm    string        `json:"searchTerm"`
	SortKey       string        `json:"sortKey"`
	SortDirection SortDirection `json:"sortDirection"`
	SelectedIDs   []string      `json:"selectedIds"`
	ViewMode      ViewMode      `json:"viewMode"`
	// Degraded is set when the last fetch fell back to an unordered read.
	Degraded bool `json:"degraded"`
}

// DefaultState is the state of a fresh session.
func DefaultState() State {
	return State{
		FilterKey:     DefaultFilterKey,
		SortDirection: Ascending,
		SelectedIDs:   []string{},
		ViewMode:      ProviderList,
	}
}

// Filter returns the sidebar entry of the state, falling back to the overview.
func (s State) Filter() Filter {
	if f, ok := LookupFilter(s.FilterKey); ok {
		return f
	}
	f, _ := LookupFilter(DefaultFilterKey)
	return f
}

// IsSelected reports whether id is part of the selection.
func (s State) IsSelected(id string) bool {
	for _, sel := range s.SelectedIDs {
		if sel == id {
			return true
		}
	}
	return false
}

// Row is one fetched table row. Exactly one of Provider and Log is set.
type Row struct {
	ID       string              `json:"id"`
	Provider *models.Provider    `json:"provider,omitempty"`
	Reasons  []string            `json:"reasons,omitempty"`
	Log      *models.ActivityLog `json:"log,omitempty"`
}

const (
	PaymentTypeSubscription = "Subscription"
	PaymentTypeRegistration = "Registration"

	SubscriptionFee = "R49"
	RegistrationFee = "R99"
)

// PaymentType is Subscription for paid active providers and Registration
// for everyone else.
func PaymentType(p *models.Provider) string {
	if p.Status == models.PROVIDER_STATUS_ACTIVE && p.IsPaid() {
		return PaymentTypeSubscription
	}
	return PaymentTypeRegistration
}

// PaymentAmount prefers the recorded amount over the fee of the payment type.
func PaymentAmount(p *models.Provider) string {
	if p.AmountPaid != "" {
		return string(p.AmountPaid)
	}
	if PaymentType(p) == PaymentTypeSubscription {
		return SubscriptionFee
	}
	return RegistrationFee
}

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// Column is the string projection of a row used for sorting.
func (r Row) Column(key string) string {
	if r.Log != nil {
		switch key {
		case "action":
			return r.Log.Action
		case "admin", "name":
			return r.Log.AdminEmail
		case "timestamp":
			return formatTime(&r.Log.Timestamp)
		}
		return ""
	}
	p := r.Provider
	if p == nil {
		return ""
	}
	switch key {
	case "name":
		return p.DisplayName
	case "phone":
		return p.Phone
	case "email":
		return p.Email
	case "area":
		return p.ServiceAreaLabel
	case "source":
		return p.Source.Label()
	case "payment":
		return p.PaymentStatus
	case "status":
		return p.Status
	case "joined":
		return formatTime(p.JoinedAt)
	case "type":
		return PaymentType(p)
	case "amount":
		return PaymentAmount(p)
	case "reasons":
		return strings.Join(r.Reasons, ", ")
	}
	return ""
}

// SortKeys lists the sortable columns of each view mode.
var SortKeys = map[ViewMode][]string{
	ProviderList: {"name", "area", "source", "payment", "status", "joined"},
	PaymentList:  {"name", "phone", "type", "amount", "payment"},
	HiddenList:   {"name", "status", "reasons"},
	AuditList:    {"action", "admin", "timestamp"},
}

// Sortable reports whether key is a sortable column of mode.
func Sortable(mode ViewMode, key string) bool {
	for _, k := range SortKeys[mode] {
		if k == key {
			return true
		}
	}
	return false
}
