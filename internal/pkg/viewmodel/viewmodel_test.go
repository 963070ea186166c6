package viewmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/providerstatus"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewstate"
)

func TestStars(t *testing.T) {
	assert.Equal(t, "★★★☆☆", Stars(3))
	assert.Equal(t, "☆☆☆☆☆", Stars(-1))
	assert.Equal(t, "★★★★★", Stars(9))
}

func TestEmptyMessage(t *testing.T) {
	pending, _ := viewstate.LookupFilter("pending")
	payments, _ := viewstate.LookupFilter("payments")
	overview, _ := viewstate.LookupFilter("dashboard")

	assert.Equal(t, "No providers found with status: PENDING", EmptyMessage(pending, ""))
	assert.Equal(t, `No providers found matching "zz"`, EmptyMessage(pending, "zz"))
	assert.Equal(t, `No payments found matching "zz"`, EmptyMessage(payments, "zz"))
	assert.Equal(t, "No payment records found.", EmptyMessage(payments, ""))
	assert.Equal(t, "No providers found in the database.", EmptyMessage(overview, ""))
}

func TestNewDashboardPage(t *testing.T) {
	joined := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	p1 := &models.Provider{ID: "p1", DisplayName: "Alpha", Status: "pending", JoinedAt: &joined}
	p2 := &models.Provider{ID: "p2", Status: "pending"}
	state := viewstate.DefaultState()
	state.SelectedIDs = []string{"p1"}
	state.SortKey = "name"

	page := NewDashboardPage(Layout{Title: "Overview"}, state, []viewstate.Row{
		{ID: "p1", Provider: p1},
		{ID: "p2", Provider: p2},
	})

	require.Len(t, page.Rows, 2)
	assert.True(t, page.Rows[0].Selected)
	assert.Equal(t, "Alpha", page.Rows[0].Name)
	assert.Equal(t, "5 January 2024", page.Rows[0].Joined)
	assert.False(t, page.Rows[1].Selected)
	assert.Equal(t, NotAvailable, page.Rows[1].Name)
	assert.False(t, page.AllSelected)

	require.NotEmpty(t, page.Columns)
	assert.Equal(t, "name", page.Columns[0].Key)
	assert.True(t, page.Columns[0].Active)
}

func TestNewTableRowAudit(t *testing.T) {
	row := NewTableRow(viewstate.Row{ID: "l1", Log: &models.ActivityLog{
		ID:         "l1",
		Action:     models.ACTION_BULK_APPROVE,
		AdminEmail: "ops@example.com",
		Timestamp:  time.Date(2024, 2, 1, 14, 5, 0, 0, time.UTC),
		Details:    map[string]interface{}{"count": 2, "admin": "ops@example.com"},
	}})
	assert.Equal(t, "bulk_approve", row.Action)
	assert.Equal(t, "2024-02-01 14:05", row.Timestamp)
	assert.Equal(t, "admin: ops@example.com, count: 2", row.Details)
}

func TestNewProfilePage(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, 3)
	expiry := now.AddDate(0, 0, 10)
	p := &models.Provider{
		ID:                  "p1",
		FullName:            "Thabo",
		SubscriptionEndDate: &end,
		RegistrationSource:  &models.RegistrationSource{Type: "Referral", ReferredName: "Lerato"},
		Documents:           map[string]models.Document{models.DocumentPrDP: {URL: "x.pdf", ExpiryDate: &expiry}},
	}
	p.Normalize()

	page := NewProfilePage(Layout{}, p, now)
	assert.Equal(t, "Thabo", page.Name)
	assert.Equal(t, NotAvailable, page.Email)
	assert.True(t, page.IsReferral)
	assert.Equal(t, "Lerato", page.ReferredBy)
	assert.Equal(t, providerstatus.SubscriptionActive, page.Subscription)
	require.Len(t, page.Warnings, 1)
	assert.Equal(t, providerstatus.BandWarning, page.Warnings[0].Band)
}
