package viewstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/app/repository/memory"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
)

var (
	testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	actor   = models.Actor{ID: "1", Email: "root@example.com"}
)

func created(days int) *time.Time {
	t := testNow.AddDate(0, 0, -days)
	return &t
}

func fixture() *memory.Providers {
	return memory.NewProviders(
		models.Provider{ID: "p1", FullName: "Thabo Mokoena", PhoneNumber: "0821112222", Status: models.PROVIDER_STATUS_PENDING, CreatedAt: created(1)},
		models.Provider{ID: "p2", Name: "anele Transport", PhoneAlias: "0723334444", Status: models.PROVIDER_STATUS_PENDING, CreatedAt: created(2)},
		models.Provider{ID: "p3", BusinessName: "Cape Shuttles", PhoneNumber: "0215556666", Status: models.PROVIDER_STATUS_PENDING, CreatedAt: created(3)},
		models.Provider{ID: "p4", FullName: "Zanele Dube", Status: models.PROVIDER_STATUS_ACTIVE, PaymentStatus: models.PAYMENT_STATUS_PAID, CreatedAt: created(4)},
	)
}

func setup(t *testing.T, providers *memory.Providers) (*Controller, *dashboard.Service, Loader, *memory.ActivityLogs) {
	t.Helper()
	repos := memory.NewRepositories(providers)
	svc := dashboard.NewService(repos, dashboard.WithClock(func() time.Time { return testNow }))
	loader := NewServiceLoader(svc)
	c := NewController(DefaultState(), nil)
	require.NoError(t, c.SelectFilter(context.Background(), "pending", loader))
	return c, svc, loader, repos.ActivityLog.(*memory.ActivityLogs)
}

func ids(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestSelectFilterResetsState(t *testing.T) {
	c, _, loader, _ := setup(t, fixture())
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(c.Rows()))
	assert.Equal(t, ProviderList, c.State.ViewMode)

	c.Search("cape")
	require.NoError(t, c.ToggleSort("name"))
	c.ToggleRow("p1", true)

	require.NoError(t, c.SelectFilter(context.Background(), "payments", loader))
	assert.Equal(t, "payments", c.State.FilterKey)
	assert.Equal(t, PaymentList, c.State.ViewMode)
	assert.Empty(t, c.State.SearchTerm)
	assert.Empty(t, c.State.SortKey)
	assert.Equal(t, Ascending, c.State.SortDirection)
	assert.Empty(t, c.State.SelectedIDs)
	assert.Len(t, c.Rows(), 4)
}

func TestSelectFilterUnknown(t *testing.T) {
	c, _, loader, _ := setup(t, fixture())
	err := c.SelectFilter(context.Background(), "archived", loader)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSelectFilterMarksDegraded(t *testing.T) {
	providers := fixture()
	providers.Fail["list_ordered"] = errors.New("index missing")
	c, _, _, _ := setup(t, providers)
	assert.True(t, c.State.Degraded)
	assert.Len(t, c.Rows(), 3)
}

func TestSearchMatchesNameOrPhone(t *testing.T) {
	c, _, _, _ := setup(t, fixture())

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"p1", "p2", "p3"}},
		{"THABO", []string{"p1"}},
		{"anele", []string{"p2"}},
		{"0723", []string{"p2"}},
		{"shuttles", []string{"p3"}},
		{"nobody", []string{}},
	}
	for _, tt := range tests {
		c.Search(tt.term)
		assert.Equal(t, tt.want, ids(c.Visible()), "term %q", tt.term)
	}
}

func TestSearchIsPureAndIdempotent(t *testing.T) {
	c, _, _, _ := setup(t, fixture())
	before := ids(c.Rows())

	c.Search("an")
	first := ids(c.Visible())
	second := ids(c.Visible())
	c.Search("an")
	third := ids(c.Visible())

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, before, ids(c.Rows()))

	rows := c.Rows()
	assert.Equal(t, ids(FilterRows(rows, "an")), ids(FilterRows(FilterRows(rows, "an"), "an")))
}

func TestToggleSort(t *testing.T) {
	c, _, _, _ := setup(t, fixture())

	require.NoError(t, c.ToggleSort("name"))
	assert.Equal(t, Ascending, c.State.SortDirection)
	asc := ids(c.Rows())
	assert.Equal(t, []string{"p2", "p3", "p1"}, asc)

	require.NoError(t, c.ToggleSort("name"))
	assert.Equal(t, Descending, c.State.SortDirection)
	desc := ids(c.Rows())
	for i := range asc {
		assert.Equal(t, asc[i], desc[len(desc)-1-i])
	}

	require.NoError(t, c.ToggleSort("joined"))
	assert.Equal(t, "joined", c.State.SortKey)
	assert.Equal(t, Ascending, c.State.SortDirection)
	assert.Equal(t, []string{"p3", "p2", "p1"}, ids(c.Rows()))

	assert.ErrorIs(t, c.ToggleSort("amount"), apperrors.ErrValidation)
}

func TestSortIsStableAndEmptyFirst(t *testing.T) {
	rows := []Row{
		{ID: "a", Provider: &models.Provider{Status: "pending"}},
		{ID: "b", Provider: &models.Provider{Status: ""}},
		{ID: "c", Provider: &models.Provider{Status: "Active"}},
		{ID: "d", Provider: &models.Provider{Status: "pending"}},
		{ID: "e", Provider: &models.Provider{Status: "active"}},
	}
	Sort(rows, "status", Ascending)
	assert.Equal(t, []string{"b", "c", "e", "a", "d"}, ids(rows))

	Sort(rows, "status", Descending)
	assert.Equal(t, []string{"a", "d", "c", "e", "b"}, ids(rows))
}

func TestToggleRowAndAll(t *testing.T) {
	c, _, _, _ := setup(t, fixture())

	c.ToggleRow("p2", true)
	c.ToggleRow("p2", true)
	assert.Equal(t, []string{"p2"}, c.State.SelectedIDs)

	c.Search("thabo")
	c.ToggleAll(true)
	assert.Equal(t, []string{"p2", "p1"}, c.State.SelectedIDs)

	c.Search("")
	c.ToggleAll(false)
	assert.Empty(t, c.State.SelectedIDs)

	c.ToggleAll(true)
	c.ToggleRow("p3", false)
	assert.Equal(t, []string{"p1", "p2"}, c.State.SelectedIDs)
}

func TestSelectionOnlyInProviderList(t *testing.T) {
	c, svc, loader, logs := setup(t, fixture())
	ctx := context.Background()

	require.NoError(t, c.ToggleRow("p1", true))
	require.NoError(t, c.SelectFilter(ctx, "payments", loader))

	var invalid *apperrors.ValidationError
	err := c.ToggleRow("p4", true)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "view", invalid.Field)
	assert.ErrorIs(t, c.ToggleAll(true), apperrors.ErrValidation)
	assert.Empty(t, c.State.SelectedIDs)

	c.State.SelectedIDs = []string{"p4"}
	n, err := c.Bulk(ctx, BulkReject, svc, loader, actor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Zero(t, n)
	assert.Empty(t, logs.Entries)
}

func TestBulkApprove(t *testing.T) {
	providers := fixture()
	c, svc, loader, logs := setup(t, providers)
	ctx := context.Background()

	c.ToggleRow("p1", true)
	c.ToggleRow("p3", true)
	n, err := c.Bulk(ctx, BulkApprove, svc, loader, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Empty(t, c.State.SelectedIDs)
	assert.Equal(t, []string{"p2"}, ids(c.Rows()))

	require.Len(t, logs.Entries, 1)
	entry := logs.Entries[0]
	assert.Equal(t, models.ACTION_BULK_APPROVE, entry.Action)
	assert.Equal(t, 2, entry.Details["count"])
	assert.Equal(t, []string{"p1", "p3"}, entry.Details["ids"])
	assert.Equal(t, "root@example.com", entry.Details["admin"])

	p, err := svc.FetchProviderByID(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, models.PROVIDER_STATUS_ACTIVE, p.Status)
	assert.True(t, p.Verified)
}

func TestBulkStopsAtFirstFailure(t *testing.T) {
	providers := fixture()
	providers.Fail["update:p2"] = apperrors.Transport("update provider", errors.New("deadline exceeded"))
	c, svc, loader, logs := setup(t, providers)
	ctx := context.Background()

	c.ToggleRow("p1", true)
	c.ToggleRow("p2", true)
	c.ToggleRow("p3", true)
	n, err := c.Bulk(ctx, BulkApprove, svc, loader, actor)

	require.Error(t, err)
	assert.Equal(t, 1, n)
	var bulkErr *BulkError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, "p2", bulkErr.FailedID)
	assert.Equal(t, []string{"p1"}, bulkErr.Completed)
	assert.ErrorIs(t, err, apperrors.ErrTransport)

	require.Len(t, providers.Updates, 1)
	assert.Equal(t, "p1", providers.Updates[0].ID)
	assert.Equal(t, []string{"p1", "p2", "p3"}, c.State.SelectedIDs)
	assert.Empty(t, logs.Entries)

	p3, err := svc.FetchProviderByID(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, models.PROVIDER_STATUS_PENDING, p3.Status)
}

func TestBulkRejectAndValidation(t *testing.T) {
	c, svc, loader, logs := setup(t, fixture())
	ctx := context.Background()

	_, err := c.Bulk(ctx, BulkApprove, svc, loader, actor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	c.ToggleRow("p2", true)
	_, err = c.Bulk(ctx, BulkAction("archive"), svc, loader, actor)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	n, err := c.Bulk(ctx, BulkReject, svc, loader, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, logs.Entries, 1)
	assert.Equal(t, models.ACTION_BULK_REJECT, logs.Entries[0].Action)

	p, err := svc.FetchProviderByID(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, models.PROVIDER_STATUS_REJECTED, p.Status)
}

func TestPaymentColumns(t *testing.T) {
	paid := &models.Provider{Status: models.PROVIDER_STATUS_ACTIVE, PaymentStatus: models.PAYMENT_STATUS_PAID}
	unpaid := &models.Provider{Status: models.PROVIDER_STATUS_ACTIVE, PaymentStatus: models.PAYMENT_STATUS_UNPAID}
	recorded := &models.Provider{Status: models.PROVIDER_STATUS_PENDING, AmountPaid: "R150"}

	assert.Equal(t, PaymentTypeSubscription, PaymentType(paid))
	assert.Equal(t, "R49", PaymentAmount(paid))
	assert.Equal(t, PaymentTypeRegistration, PaymentType(unpaid))
	assert.Equal(t, "R99", PaymentAmount(unpaid))
	assert.Equal(t, "R150", PaymentAmount(recorded))
}

func TestLoaderViews(t *testing.T) {
	c, _, loader, _ := setup(t, fixture())
	ctx := context.Background()

	require.NoError(t, c.SelectFilter(ctx, "hidden", loader))
	assert.Equal(t, HiddenList, c.State.ViewMode)
	// three pending plus the active provider without a subscription
	require.Len(t, c.Rows(), 4)
	assert.Equal(t, []string{"Subscription Not Paid / Expired"}, c.Rows()[3].Reasons)

	require.NoError(t, c.SelectFilter(ctx, "audit", loader))
	assert.Equal(t, AuditList, c.State.ViewMode)
	assert.Empty(t, c.Rows())
}

func TestReloadKeepsSearchSortAndSelection(t *testing.T) {
	providers := fixture()
	c, _, loader, _ := setup(t, providers)
	ctx := context.Background()

	c.Search("a")
	require.NoError(t, c.ToggleSort("name"))
	require.NoError(t, c.ToggleSort("name"))
	c.ToggleRow("p3", true)

	resumed := NewController(c.State, nil)
	require.NoError(t, resumed.Reload(ctx, loader))
	assert.Equal(t, []string{"p1", "p3", "p2"}, ids(resumed.Rows()))
	assert.Equal(t, "a", resumed.State.SearchTerm)
	assert.Equal(t, []string{"p3"}, resumed.State.SelectedIDs)
}
