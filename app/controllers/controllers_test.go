package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/app/repository"
	"github.com/findmyridesa/provider-admin/app/repository/memory"
	"github.com/findmyridesa/provider-admin/internal/pkg/auth"
	"github.com/findmyridesa/provider-admin/internal/pkg/dashboard"
	"github.com/findmyridesa/provider-admin/internal/pkg/middleware"
	"github.com/findmyridesa/provider-admin/internal/pkg/session"
	"github.com/findmyridesa/provider-admin/internal/pkg/viewstate"
)

var fixedNow = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := fixedNow.AddDate(0, 0, -n)
	return &t
}

// rowCache is an in-memory snapshot store.
type rowCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *rowCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *rowCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *rowCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type testEnv struct {
	app       *fiber.App
	providers *memory.Providers
	repos     *repository.Repositories
	logs      *memory.ActivityLogs
	reviews   *memory.Reviews
	cookies   []*http.Cookie
}

func fixtureProviders() *memory.Providers {
	return memory.NewProviders(
		models.Provider{ID: "p1", FullName: "Thabo Mokoena", PhoneNumber: "0821112222", Status: models.PROVIDER_STATUS_PENDING, CreatedAt: daysAgo(1), AreaCovered: models.StringList{"Soweto"}},
		models.Provider{ID: "p2", FullName: "Ayanda Dlamini", PhoneNumber: "0833334444", Status: models.PROVIDER_STATUS_ACTIVE, CreatedAt: daysAgo(2), PaymentStatus: models.PAYMENT_STATUS_PAID,
			SubscriptionEndDate: daysAgo(-20), AvailabilityStatus: "available"},
		models.Provider{ID: "p3", Name: "Bongani Rides", PhoneNumber: "0845556666", Status: models.PROVIDER_STATUS_REJECTED, CreatedAt: daysAgo(3),
			Documents: map[string]models.Document{"driversLicense": {URL: "https://files.example.com/license.pdf"}}},
	)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	providers := fixtureProviders()
	repos := memory.NewRepositories(providers)
	logs := repos.ActivityLog.(*memory.ActivityLogs)
	reviews := repos.Review.(*memory.Reviews)

	svc := dashboard.NewService(repos, dashboard.WithClock(func() time.Time { return fixedNow }))
	authn := auth.NewAuthenticator(repos.User, repos.AdminRegistry)
	session.SetSessionStore(fibersession.New())

	deps := Deps{
		Service:   svc,
		Auth:      authn,
		Snapshots: viewstate.NewSnapshotStore(&rowCache{data: map[string][]byte{}}, time.Hour),
		Log:       zap.NewNop(),
	}
	InitializeControllers(deps)

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(zap.NewNop()),
	})
	app.Use(middleware.UserContextMiddleware)
	app.Get("/login", HandleLogin)
	app.Post("/login", HandleLoginSubmit)
	app.Post("/logout", HandleLogout)

	api := app.Group("/admin/api", middleware.RequireAPIAdmin(authn, zap.NewNop()))
	api.Get("/metrics", HandleAPIMetrics)
	api.Get("/providers", HandleAPIProviders)
	api.Get("/providers/:id", HandleAPIProvider)
	api.Get("/providers/:id/reviews", HandleAPIProviderReviews)
	api.Get("/hidden", HandleAPIHidden)
	api.Get("/audit", HandleAPIAudit)

	admin := app.Group("/admin", middleware.RequireAdmin(authn, zap.NewNop()))
	admin.Get("/", HandleAdminDashboard)
	admin.Get("/filter/:key", HandleAdminFilter)
	admin.Get("/search", HandleAdminSearch)
	admin.Get("/sort/:key", HandleAdminSort)
	admin.Post("/refresh", HandleAdminRefresh)
	admin.Post("/select-all", HandleAdminSelectAll)
	admin.Post("/select/:id", HandleAdminSelect)
	admin.Post("/bulk/:action", HandleAdminBulk)
	admin.Get("/providers/:id", HandleProviderProfile)
	admin.Post("/providers/:id/approve", HandleProviderApprove)
	admin.Post("/providers/:id/reject", HandleProviderReject)
	admin.Post("/providers/:id/notes", HandleProviderNotes)
	admin.Post("/providers/:id/confirm-payment", HandleProviderConfirmPayment)
	admin.Post("/providers/:id/confirm-subscription", HandleProviderConfirmSubscription)

	return &testEnv{app: app, providers: providers, repos: repos, logs: logs, reviews: reviews}
}

func (e *testEnv) addUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	u, err := models.CreateUser("Admin User", email, "secret123", role)
	require.NoError(t, err)
	require.NoError(t, e.repos.User.Create(context.Background(), u))
	return u
}

// do sends a request carrying the cookies of earlier responses.
func (e *testEnv) do(t *testing.T, method, target string, form url.Values) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	e.keepCookies(resp)
	return resp
}

func (e *testEnv) keepCookies(resp *http.Response) {
	for _, fresh := range resp.Cookies() {
		kept := e.cookies[:0]
		for _, c := range e.cookies {
			if c.Name != fresh.Name {
				kept = append(kept, c)
			}
		}
		e.cookies = kept
		if fresh.Value != "" && fresh.MaxAge >= 0 {
			e.cookies = append(e.cookies, fresh)
		}
	}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	e.addUser(t, "admin@example.com", models.ROLE_ADMIN)
	resp := e.do(t, fiber.MethodPost, "/login", url.Values{"email": {"admin@example.com"}, "password": {"secret123"}})
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, fiber.MethodGet, "/login", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Login to Dashboard")

	resp = env.do(t, fiber.MethodGet, "/login?error=unauthorized", nil)
	assert.Contains(t, readBody(t, resp), auth.UnauthorizedMessage)
}

func TestLoginRejections(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin@example.com", models.ROLE_ADMIN)
	env.addUser(t, "user@example.com", models.ROLE_USER)

	tests := []struct {
		name     string
		email    string
		password string
		location string
	}{
		{"wrong password", "admin@example.com", "wrong", "/login"},
		{"unknown email", "ghost@example.com", "secret123", "/login"},
		{"not an admin", "user@example.com", "secret123", "/login?error=unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, fiber.MethodPost, "/login", url.Values{"email": {tt.email}, "password": {tt.password}})
			assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))

			resp = env.do(t, fiber.MethodGet, "/admin", nil)
			assert.Equal(t, "/login", resp.Header.Get("Location"))
		})
	}
}

func TestAdminRequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, fiber.MethodGet, "/admin", nil)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = env.do(t, fiber.MethodGet, "/admin/api/metrics", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestDashboardRendersMetricsAndRows(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp := env.do(t, fiber.MethodGet, "/admin", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `id="stat-total">3<`)
	assert.Contains(t, body, `id="stat-pending">1<`)
	assert.Contains(t, body, "Thabo Mokoena")
	assert.Contains(t, body, "Bongani Rides")
	assert.Contains(t, body, "admin@example.com")
}

func TestDashboardShowsLoadError(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.providers.Fail["list_ordered"] = errors.New("index missing")
	env.providers.Fail["list"] = errors.New("connection refused")

	resp := env.do(t, fiber.MethodGet, "/admin", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Error loading data. Please refresh the page.")
}

func TestFilterSearchAndSort(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp := env.do(t, fiber.MethodGet, "/admin/filter/pending", nil)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	body := readBody(t, env.do(t, fiber.MethodGet, "/admin", nil))
	assert.Contains(t, body, "Thabo Mokoena")
	assert.NotContains(t, body, "Ayanda Dlamini")

	env.do(t, fiber.MethodGet, "/admin/filter/dashboard", nil)
	updatesBefore := len(env.providers.Updates)

	env.do(t, fiber.MethodGet, "/admin/search?q=0833", nil)
	body = readBody(t, env.do(t, fiber.MethodGet, "/admin", nil))
	assert.Contains(t, body, "Ayanda Dlamini")
	assert.NotContains(t, body, "Thabo Mokoena")

	env.do(t, fiber.MethodGet, "/admin/search?q=", nil)
	env.do(t, fiber.MethodGet, "/admin/sort/name", nil)
	body = readBody(t, env.do(t, fiber.MethodGet, "/admin", nil))
	assert.Less(t, strings.Index(body, "Ayanda Dlamini"), strings.Index(body, "Bongani Rides"))
	assert.Less(t, strings.Index(body, "Bongani Rides"), strings.Index(body, "Thabo Mokoena"))
	assert.Equal(t, updatesBefore, len(env.providers.Updates))

	resp = env.do(t, fiber.MethodGet, "/admin/filter/bogus", nil)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
}

func TestFilterFetchesRowsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	before := env.providers.Lists
	env.do(t, fiber.MethodGet, "/admin/filter/pending", nil)
	assert.Equal(t, before+1, env.providers.Lists)

	env.do(t, fiber.MethodPost, "/admin/refresh", url.Values{})
	assert.Equal(t, before+2, env.providers.Lists)
}

func TestSelectionRefusedOutsideProviderList(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.do(t, fiber.MethodGet, "/admin/filter/payments", nil)

	for _, target := range []string{"/admin/select/p2", "/admin/select-all", "/admin/bulk/approve"} {
		resp := env.do(t, fiber.MethodPost, target, url.Values{"on": {"true"}})
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode, target)
		assert.Equal(t, "/admin", resp.Header.Get("Location"), target)
	}
	assert.Empty(t, env.providers.Updates)
	assert.Empty(t, env.logs.Entries)
}

func TestBulkApproveFromSelection(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.do(t, fiber.MethodGet, "/admin", nil)

	env.do(t, fiber.MethodPost, "/admin/select/p1", url.Values{"on": {"true"}})
	env.do(t, fiber.MethodPost, "/admin/select/p3", url.Values{"on": {"true"}})
	resp := env.do(t, fiber.MethodPost, "/admin/bulk/approve", url.Values{})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	ctx := context.Background()
	for _, id := range []string{"p1", "p3"} {
		p, err := env.providers.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.PROVIDER_STATUS_ACTIVE, p.Status)
		assert.True(t, p.Verified)
		assert.Equal(t, "admin:admin@example.com", p.LastProcessedBy)
	}
	require.Len(t, env.logs.Entries, 1)
	assert.Equal(t, models.ACTION_BULK_APPROVE, env.logs.Entries[0].Action)
	assert.Equal(t, "admin@example.com", env.logs.Entries[0].AdminEmail)
}

func TestBulkWithoutSelection(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp := env.do(t, fiber.MethodPost, "/admin/bulk/reject", url.Values{})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, env.providers.Updates)
	assert.Empty(t, env.logs.Entries)
}

func TestProfilePage(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.reviews.Items = []models.Review{
		{ID: "r1", ProviderID: "p3", Rating: 4, Comment: "Great driver", CreatedAt: fixedNow.AddDate(0, 0, -1)},
	}

	resp := env.do(t, fiber.MethodGet, "/admin/providers/p3", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Bongani Rides")
	assert.Contains(t, body, "DRIVERS LICENSE")
	assert.Contains(t, body, "pdf-preview")
	assert.Contains(t, body, "Great driver")

	resp = env.do(t, fiber.MethodGet, "/admin/providers/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProviderActions(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()

	resp := env.do(t, fiber.MethodPost, "/admin/providers/p1/reject", url.Values{"reason": {"   "}})
	assert.Equal(t, "/admin/providers/p1", resp.Header.Get("Location"))
	assert.Empty(t, env.providers.Updates)

	env.do(t, fiber.MethodPost, "/admin/providers/p1/reject", url.Values{"reason": {"Blurry licence"}})
	p, err := env.providers.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PROVIDER_STATUS_REJECTED, p.Status)
	assert.Equal(t, "Blurry licence", p.RejectionReason)

	env.do(t, fiber.MethodPost, "/admin/providers/p1/confirm-subscription", url.Values{})
	p, err = env.providers.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p.SubscriptionEndDate)
	assert.Equal(t, fixedNow.AddDate(0, 1, 0), p.SubscriptionEndDate.UTC())

	env.do(t, fiber.MethodPost, "/admin/providers/p1/notes", url.Values{"notes": {"Called twice"}})
	p, err = env.providers.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Called twice", p.AdminNotes)

	actions := make([]string, 0, len(env.logs.Entries))
	for _, e := range env.logs.Entries {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		models.ACTION_REJECT_PROVIDER,
		models.ACTION_CONFIRM_SUBSCRIPTION_PAYMENT,
		models.ACTION_UPDATE_ADMIN_NOTES,
	}, actions)

	resp = env.do(t, fiber.MethodPost, "/admin/providers/missing/approve", url.Values{})
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
}

func TestProviderActionRefreshesTable(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	env.do(t, fiber.MethodGet, "/admin/filter/pending", nil)
	body := readBody(t, env.do(t, fiber.MethodGet, "/admin", nil))
	require.Contains(t, body, "Thabo Mokoena")

	resp := env.do(t, fiber.MethodPost, "/admin/providers/p1/approve", url.Values{})
	require.Equal(t, "/admin/providers/p1", resp.Header.Get("Location"))

	body = readBody(t, env.do(t, fiber.MethodGet, "/admin", nil))
	assert.NotContains(t, body, "Thabo Mokoena")
	assert.Contains(t, body, "No providers found with status: PENDING")
}

func TestAPI(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp := env.do(t, fiber.MethodGet, "/admin/api/metrics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var m dashboard.Metrics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	assert.Equal(t, dashboard.Metrics{TotalProviders: 3, PendingProviders: 1, ActiveProviders: 1}, m)

	resp = env.do(t, fiber.MethodGet, "/admin/api/providers?status=active", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list dashboard.RecentProviders
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Providers, 1)
	assert.Equal(t, "p2", list.Providers[0].ID)

	resp = env.do(t, fiber.MethodGet, "/admin/api/providers?status=unknown", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, fiber.MethodGet, "/admin/api/providers/p2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var detail struct {
		Subscription string `json:"subscription"`
		Availability string `json:"availability"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, "Active", detail.Subscription)
	assert.Equal(t, "Available", detail.Availability)

	resp = env.do(t, fiber.MethodGet, "/admin/api/providers/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(t, fiber.MethodGet, "/admin/api/providers/p1/reviews?cursor=%21%21", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	env.providers.Fail["count"] = errors.New("connection reset")
	resp = env.do(t, fiber.MethodGet, "/admin/api/metrics", nil)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	resp := env.do(t, fiber.MethodPost, "/logout", url.Values{})
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = env.do(t, fiber.MethodGet, "/admin", nil)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}
