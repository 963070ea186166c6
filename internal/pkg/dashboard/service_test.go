package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/app/repository/memory"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
)

var (
	fixedNow = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	admin    = models.Actor{ID: "7", Email: "ops@example.com"}
)

func at(days int) *time.Time {
	t := fixedNow.AddDate(0, 0, days)
	return &t
}

func newTestService(providers *memory.Providers, opts ...Option) (*Service, *memory.ActivityLogs) {
	repos := memory.NewRepositories(providers)
	ids := 0
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			ids++
			return "log-" + string(rune('0'+ids))
		}),
	}, opts...)
	return NewService(repos, opts...), repos.ActivityLog.(*memory.ActivityLogs)
}

func sampleProviders() *memory.Providers {
	return memory.NewProviders(
		models.Provider{ID: "a", FullName: "Alpha", Status: models.PROVIDER_STATUS_PENDING, CreatedAt: at(-3)},
		models.Provider{ID: "b", FullName: "Bravo", Status: models.PROVIDER_STATUS_ACTIVE, CreatedAt: at(-1)},
		models.Provider{ID: "c", FullName: "Charlie", Status: models.PROVIDER_STATUS_ACTIVE, CreatedAt: at(-2)},
		models.Provider{ID: "d", FullName: "Delta", Status: models.PROVIDER_STATUS_REJECTED, CreatedAt: at(-5)},
	)
}

type mapCache struct {
	values map[string]Metrics
	sets   int
}

func (c *mapCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	m, ok := c.values[key]
	if ok {
		*(dst.(*Metrics)) = m
	}
	return ok, nil
}

func (c *mapCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.sets++
	c.values[key] = value.(Metrics)
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func TestFetchMetrics(t *testing.T) {
	svc, _ := newTestService(sampleProviders())

	m, err := svc.FetchMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Metrics{TotalProviders: 4, PendingProviders: 1, ActiveProviders: 2, PaymentsPending: 0}, m)
}

func TestFetchMetricsReturnsError(t *testing.T) {
	providers := sampleProviders()
	providers.Fail["count"] = apperrors.Transport("count providers", errors.New("connection reset"))
	svc, _ := newTestService(providers)

	_, err := svc.FetchMetrics(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestFetchMetricsUsesCache(t *testing.T) {
	providers := sampleProviders()
	c := &mapCache{values: map[string]Metrics{}}
	svc, _ := newTestService(providers, WithMetricsCache(c, time.Minute))
	ctx := context.Background()

	first, err := svc.FetchMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets)

	providers.Fail["count"] = errors.New("store down")
	cached, err := svc.FetchMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	delete(providers.Fail, "count")
	require.NoError(t, svc.Approve(ctx, "a", admin))
	assert.Empty(t, c.values)

	fresh, err := svc.FetchMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.PendingProviders)
	assert.Equal(t, int64(3), fresh.ActiveProviders)
}

func TestFetchRecentProviders(t *testing.T) {
	svc, _ := newTestService(sampleProviders())

	res, err := svc.FetchRecentProviders(context.Background(), 2, "")
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	require.Len(t, res.Providers, 2)
	assert.Equal(t, "b", res.Providers[0].ID)
	assert.Equal(t, "c", res.Providers[1].ID)
}

func TestFetchRecentProvidersFallsBack(t *testing.T) {
	providers := sampleProviders()
	providers.Fail["list_ordered"] = errors.New("missing index")
	svc, _ := newTestService(providers)

	res, err := svc.FetchRecentProviders(context.Background(), 20, models.PROVIDER_STATUS_ACTIVE)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	require.Len(t, res.Providers, 2)
	assert.Equal(t, "b", res.Providers[0].ID)
	assert.Equal(t, "c", res.Providers[1].ID)
}

func TestFetchRecentProvidersFails(t *testing.T) {
	providers := sampleProviders()
	providers.Fail["list"] = errors.New("unreachable")
	svc, _ := newTestService(providers)

	_, err := svc.FetchRecentProviders(context.Background(), 20, "")
	assert.Error(t, err)
}

func TestFetchProviderByID(t *testing.T) {
	providers := sampleProviders()
	svc, _ := newTestService(providers)
	ctx := context.Background()

	p, err := svc.FetchProviderByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Bravo", p.DisplayName)

	_, err = svc.FetchProviderByID(ctx, "zzz")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrTransport)

	providers.Fail["get"] = apperrors.Transport("find provider", errors.New("timeout"))
	_, err = svc.FetchProviderByID(ctx, "b")
	assert.ErrorIs(t, err, apperrors.ErrTransport)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateProviderStampsActor(t *testing.T) {
	providers := sampleProviders()
	svc, _ := newTestService(providers)

	err := svc.UpdateProvider(context.Background(), "a", map[string]interface{}{"adminNotes": "call back"}, admin)
	require.NoError(t, err)

	require.Len(t, providers.Updates, 1)
	fields := providers.Updates[0].Fields
	assert.Equal(t, "call back", fields["adminNotes"])
	assert.Equal(t, fixedNow, fields["updatedAt"])
	assert.Equal(t, "admin:ops@example.com", fields["lastProcessedBy"])

	p, err := svc.FetchProviderByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.DisplayName)
	assert.Equal(t, models.PROVIDER_STATUS_PENDING, p.Status)
}

func TestConfirmSubscriptionPayment(t *testing.T) {
	providers := memory.NewProviders(models.Provider{
		ID:                  "p1",
		Status:              models.PROVIDER_STATUS_ACTIVE,
		SubscriptionEndDate: at(-40),
		GracePeriodEndDate:  at(-35),
	})
	svc, logs := newTestService(providers)
	ctx := context.Background()

	require.NoError(t, svc.ConfirmSubscriptionPayment(ctx, "p1", admin))

	p, err := svc.FetchProviderByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, fixedNow, *p.SubscriptionStartDate)
	assert.Equal(t, time.Date(2024, 2, 15, 9, 30, 0, 0, time.UTC), *p.SubscriptionEndDate)
	assert.Equal(t, time.Date(2024, 2, 20, 9, 30, 0, 0, time.UTC), *p.GracePeriodEndDate)
	assert.Equal(t, fixedNow, *p.LastPaymentDate)
	assert.Equal(t, models.BILLING_CYCLE_MONTHLY, p.BillingCycle)
	assert.Equal(t, models.PAYMENT_STATUS_PAID, p.PaymentStatus)

	require.Len(t, logs.Entries, 1)
	assert.Equal(t, models.ACTION_CONFIRM_SUBSCRIPTION_PAYMENT, logs.Entries[0].Action)
	assert.Equal(t, "p1", logs.Entries[0].Details["providerId"])
}

func TestGracePeriodCountsCalendarDays(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	// the grace period spans the switch to summer time on 31 March 2024
	now := time.Date(2024, 2, 27, 10, 0, 0, 0, berlin)
	providers := memory.NewProviders(models.Provider{ID: "p1", Status: models.PROVIDER_STATUS_ACTIVE})
	svc, _ := newTestService(providers, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, svc.ConfirmSubscriptionPayment(ctx, "p1", admin))

	p, err := svc.FetchProviderByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p.GracePeriodEndDate)
	assert.Equal(t, time.Date(2024, 4, 1, 10, 0, 0, 0, berlin).UTC(), p.GracePeriodEndDate.UTC())
}

func TestRejectRequiresReason(t *testing.T) {
	providers := sampleProviders()
	svc, logs := newTestService(providers)

	err := svc.Reject(context.Background(), "a", "   ", admin)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, providers.Updates)
	assert.Empty(t, logs.Entries)

	require.NoError(t, svc.Reject(context.Background(), "a", "Blurry permit", admin))
	p, err := svc.FetchProviderByID(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.PROVIDER_STATUS_REJECTED, p.Status)
	assert.Equal(t, "Blurry permit", p.RejectionReason)
}

func TestMutationsAppendAuditEntries(t *testing.T) {
	svc, logs := newTestService(sampleProviders())
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, "a", admin))
	require.NoError(t, svc.ConfirmRegistrationPayment(ctx, "b", admin))
	require.NoError(t, svc.SaveAdminNotes(ctx, "c", "docs verified", admin))

	require.Len(t, logs.Entries, 3)
	assert.Equal(t, models.ACTION_APPROVE_PROVIDER, logs.Entries[0].Action)
	assert.Equal(t, models.ACTION_CONFIRM_REGISTRATION_PAYMENT, logs.Entries[1].Action)
	assert.Equal(t, models.ACTION_UPDATE_ADMIN_NOTES, logs.Entries[2].Action)
	for _, e := range logs.Entries {
		assert.Equal(t, "7", e.AdminID)
		assert.Equal(t, "ops@example.com", e.AdminEmail)
		assert.Equal(t, fixedNow, e.Timestamp)
	}

	recent, err := svc.RecentAuditLog(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.ACTION_UPDATE_ADMIN_NOTES, recent[0].Action)
}

func TestMutationOnMissingProvider(t *testing.T) {
	svc, logs := newTestService(sampleProviders())

	err := svc.Approve(context.Background(), "missing", admin)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, logs.Entries)
}

func TestHiddenProviders(t *testing.T) {
	svc, _ := newTestService(sampleProviders())

	entries, err := svc.HiddenProviders(context.Background())
	require.NoError(t, err)
	// d rejected, a pending, b and c active without any subscription
	require.Len(t, entries, 4)
	assert.Equal(t, "d", entries[0].Provider.ID)
	assert.Equal(t, "a", entries[1].Provider.ID)
}
