// Package dashboard is the single entry point the presentation layer uses to
// read and mutate providers, reviews and the audit trail.
package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/app/repository"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
	"github.com/findmyridesa/provider-admin/internal/pkg/hidden"
	"github.com/findmyridesa/provider-admin/internal/pkg/metrics"
)

const (
	CacheKeyMetrics        = "dashboard:metrics"
	DefaultMetricsCacheTTL = 30 * time.Second

	// GracePeriodDays are the calendar days granted after a confirmed
	// monthly subscription ends.
	GracePeriodDays = 5
)

// Metrics are the headline counts shown above the provider table.
type Metrics struct {
	TotalProviders   int64 `json:"totalProviders"`
	PendingProviders int64 `json:"pendingProviders"`
	ActiveProviders  int64 `json:"activeProviders"`
	// PaymentsPending is not backed by any query and is always zero.
	PaymentsPending int64 `json:"paymentsPending"`
}

// RecentProviders is a provider listing. Degraded is set when the ordered
// query failed and the unordered fallback was used.
type RecentProviders struct {
	Providers []models.Provider `json:"providers"`
	Degraded  bool              `json:"degraded"`
}

// MetricsCache stores the metrics snapshot between requests.
type MetricsCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Service implements the dashboard read and write operations.
type Service struct {
	providers repository.ProviderRepository
	reviews   repository.ReviewRepository
	logs      repository.ActivityLogRepository

	cache    MetricsCache
	cacheTTL time.Duration
	metrics  metrics.DashboardMetrics
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

// WithMetricsCache caches FetchMetrics results for ttl.
func WithMetricsCache(c MetricsCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithMetrics(m metrics.DashboardMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the audit log id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a dashboard service over the given repositories.
func NewService(repos *repository.Repositories, opts ...Option) *Service {
	s := &Service{
		providers: repos.Provider,
		reviews:   repos.Review,
		logs:      repos.ActivityLog,
		cacheTTL:  DefaultMetricsCacheTTL,
		metrics:   metrics.NopDashboardMetrics{},
		log:       zap.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the evaluation time used for derived statuses.
func (s *Service) Now() time.Time {
	return s.now()
}

// FetchMetrics counts all, pending and active providers concurrently.
func (s *Service) FetchMetrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	if s.cache != nil {
		found, err := s.cache.GetJSON(ctx, CacheKeyMetrics, &m)
		if err != nil {
			s.log.Warn("metrics cache read failed", zap.Error(err))
		} else if found {
			return m, nil
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		m.TotalProviders, err = s.providers.Count(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		m.PendingProviders, err = s.providers.Count(gctx, models.PROVIDER_STATUS_PENDING)
		return err
	})
	g.Go(func() (err error) {
		m.ActiveProviders, err = s.providers.Count(gctx, models.PROVIDER_STATUS_ACTIVE)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncReadFailure("metrics")
		return Metrics{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, CacheKeyMetrics, m, s.cacheTTL); err != nil {
			s.log.Warn("metrics cache write failed", zap.Error(err))
		}
	}
	return m, nil
}

// FetchRecentProviders returns the newest providers first. When the ordered
// query fails, an unordered read with the same filter and limit is returned
// and the result is marked degraded.
func (s *Service) FetchRecentProviders(ctx context.Context, limit int64, status string) (RecentProviders, error) {
	q := repository.ProviderQuery{Status: status, Limit: limit, Ordered: true}
	providers, err := s.providers.List(ctx, q)
	if err == nil {
		return RecentProviders{Providers: providers}, nil
	}

	s.log.Warn("ordered provider query failed, falling back",
		zap.String("status", status), zap.Int64("limit", limit), zap.Error(err))
	s.metrics.IncDegradedQuery(models.ProviderCollection)

	q.Ordered = false
	providers, err = s.providers.List(ctx, q)
	if err != nil {
		s.metrics.IncReadFailure("recent_providers")
		return RecentProviders{}, err
	}
	return RecentProviders{Providers: providers, Degraded: true}, nil
}

// FetchProviderByID returns apperrors.ErrNotFound when no provider has the id.
func (s *Service) FetchProviderByID(ctx context.Context, id string) (*models.Provider, error) {
	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.metrics.IncReadFailure("provider")
		}
		return nil, err
	}
	return p, nil
}

// UpdateProvider merges fields into the stored provider and stamps the
// modification time and the acting admin. Fields not named are untouched.
func (s *Service) UpdateProvider(ctx context.Context, id string, fields map[string]interface{}, actor models.Actor) error {
	merged := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		merged[k] = v
	}
	merged["updatedAt"] = s.now()
	merged["lastProcessedBy"] = actor.Tag()
	return s.providers.Update(ctx, id, merged)
}

// ConfirmSubscriptionPayment starts a fresh monthly period from now,
// replacing any previous one.
func (s *Service) ConfirmSubscriptionPayment(ctx context.Context, id string, actor models.Actor) error {
	now := s.now()
	end := now.AddDate(0, 1, 0)
	fields := map[string]interface{}{
		"subscriptionStartDate": now,
		"subscriptionEndDate":   end,
		"gracePeriodEndDate":    end.AddDate(0, 0, GracePeriodDays),
		"lastPaymentDate":       now,
		"billingCycle":          models.BILLING_CYCLE_MONTHLY,
		"paymentStatus":         models.PAYMENT_STATUS_PAID,
	}
	if err := s.UpdateProvider(ctx, id, fields, actor); err != nil {
		return err
	}
	return s.RecordAction(ctx, models.ACTION_CONFIRM_SUBSCRIPTION_PAYMENT, map[string]interface{}{
		"providerId":          id,
		"subscriptionEndDate": end,
	}, actor)
}

// ConfirmRegistrationPayment marks the one-off registration fee as paid.
func (s *Service) ConfirmRegistrationPayment(ctx context.Context, id string, actor models.Actor) error {
	fields := map[string]interface{}{"paymentStatus": models.PAYMENT_STATUS_PAID}
	if err := s.UpdateProvider(ctx, id, fields, actor); err != nil {
		return err
	}
	return s.RecordAction(ctx, models.ACTION_CONFIRM_REGISTRATION_PAYMENT, map[string]interface{}{"providerId": id}, actor)
}

// ApproveFields are written when a provider is approved.
func ApproveFields() map[string]interface{} {
	return map[string]interface{}{
		"status":   models.PROVIDER_STATUS_ACTIVE,
		"verified": true,
	}
}

// RejectFields are written when a provider is rejected.
func RejectFields(reason string) map[string]interface{} {
	fields := map[string]interface{}{"status": models.PROVIDER_STATUS_REJECTED}
	if reason != "" {
		fields["rejectionReason"] = reason
	}
	return fields
}

// Approve activates a single provider.
func (s *Service) Approve(ctx context.Context, id string, actor models.Actor) error {
	if err := s.UpdateProvider(ctx, id, ApproveFields(), actor); err != nil {
		return err
	}
	return s.RecordAction(ctx, models.ACTION_APPROVE_PROVIDER, map[string]interface{}{"providerId": id}, actor)
}

// Reject rejects a single provider. A reason is required.
func (s *Service) Reject(ctx context.Context, id, reason string, actor models.Actor) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperrors.NewValidationError("reason", "a rejection reason is required")
	}
	if err := s.UpdateProvider(ctx, id, RejectFields(reason), actor); err != nil {
		return err
	}
	return s.RecordAction(ctx, models.ACTION_REJECT_PROVIDER, map[string]interface{}{
		"providerId": id,
		"reason":     reason,
	}, actor)
}

// SaveAdminNotes replaces the internal notes on a provider.
func (s *Service) SaveAdminNotes(ctx context.Context, id, notes string, actor models.Actor) error {
	if err := s.UpdateProvider(ctx, id, map[string]interface{}{"adminNotes": notes}, actor); err != nil {
		return err
	}
	return s.RecordAction(ctx, models.ACTION_UPDATE_ADMIN_NOTES, map[string]interface{}{"providerId": id}, actor)
}

// AppendAuditLog inserts a new audit entry. Entries are never changed afterwards.
func (s *Service) AppendAuditLog(ctx context.Context, action string, details map[string]interface{}, actor models.Actor) error {
	entry := &models.ActivityLog{
		ID:         s.newID(),
		Action:     action,
		Details:    details,
		AdminID:    actor.ID,
		AdminEmail: actor.Email,
		Timestamp:  s.now(),
	}
	return s.logs.Append(ctx, entry)
}

// RecentAuditLog returns the newest audit entries first.
func (s *Service) RecentAuditLog(ctx context.Context, limit int64) ([]models.ActivityLog, error) {
	entries, err := s.logs.Recent(ctx, limit)
	if err != nil {
		s.metrics.IncReadFailure("audit_log")
		return nil, err
	}
	return entries, nil
}

// HiddenProviders lists every provider missing from the public listing.
func (s *Service) HiddenProviders(ctx context.Context) ([]hidden.Entry, error) {
	entries, err := hidden.Aggregate(ctx, s.providers, s.now())
	if err != nil {
		s.metrics.IncReadFailure("hidden_providers")
		return nil, err
	}
	return entries, nil
}

// RecordAction appends the audit entry for a successful mutation and drops
// the cached metrics, which the mutation may have changed.
func (s *Service) RecordAction(ctx context.Context, action string, details map[string]interface{}, actor models.Actor) error {
	s.metrics.IncAdminAction(action)
	s.InvalidateMetrics(ctx)
	return s.AppendAuditLog(ctx, action, details, actor)
}

// InvalidateMetrics drops the cached metrics snapshot.
func (s *Service) InvalidateMetrics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CacheKeyMetrics); err != nil {
		s.log.Warn("metrics cache invalidation failed", zap.Error(err))
	}
}
