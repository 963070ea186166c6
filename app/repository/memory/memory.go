// Package memory holds in-memory repositories for tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/app/repository"
	"github.com/findmyridesa/provider-admin/internal/pkg/apperrors"
)

// Providers keeps providers in insertion order.
type Providers struct {
	mu    sync.Mutex
	items []models.Provider

	// Fail maps an operation name to the error it returns. Operation names
	// are "count", "list", "list_ordered", "list_by_status:<status>", "get"
	// and "update:<id>".
	Fail map[string]error
	// Updates records every applied update in order.
	Updates []Update
	// Lists counts the calls to List and ListByStatus.
	Lists int
}

// Update is one recorded call to Providers.Update.
type Update struct {
	ID     string
	Fields map[string]interface{}
}

// NewProviders stores the given providers after normalizing them.
func NewProviders(items ...models.Provider) *Providers {
	p := &Providers{Fail: map[string]error{}}
	for _, item := range items {
		item.Normalize()
		p.items = append(p.items, item)
	}
	return p
}

func (p *Providers) fail(op string) error {
	if err, ok := p.Fail[op]; ok {
		return err
	}
	return nil
}

func (p *Providers) Count(_ context.Context, status string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("count"); err != nil {
		return 0, err
	}
	var n int64
	for _, item := range p.items {
		if status == "" || item.Status == status {
			n++
		}
	}
	return n, nil
}

func (p *Providers) List(_ context.Context, q repository.ProviderQuery) ([]models.Provider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Lists++
	if err := p.fail("list"); err != nil {
		return nil, err
	}
	if q.Ordered {
		if err := p.fail("list_ordered"); err != nil {
			return nil, err
		}
	}
	out := p.filter(q.Status)
	if q.Ordered {
		sort.SliceStable(out, func(i, j int) bool {
			return createdAt(out[i]).After(createdAt(out[j]))
		})
	}
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (p *Providers) ListByStatus(_ context.Context, status string) ([]models.Provider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Lists++
	if err := p.fail("list_by_status:" + status); err != nil {
		return nil, err
	}
	return p.filter(status), nil
}

func (p *Providers) GetByID(_ context.Context, id string) (*models.Provider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("get"); err != nil {
		return nil, err
	}
	for _, item := range p.items {
		if item.ID == id {
			out := item
			return &out, nil
		}
	}
	return nil, apperrors.NewNotFoundError("provider", id)
}

// Update applies the handful of fields the dashboard writes.
func (p *Providers) Update(_ context.Context, id string, fields map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("update:" + id); err != nil {
		return err
	}
	for i := range p.items {
		if p.items[i].ID != id {
			continue
		}
		apply(&p.items[i], fields)
		p.items[i].Normalize()
		p.Updates = append(p.Updates, Update{ID: id, Fields: fields})
		return nil
	}
	return apperrors.NewNotFoundError("provider", id)
}

func (p *Providers) filter(status string) []models.Provider {
	out := make([]models.Provider, 0, len(p.items))
	for _, item := range p.items {
		if status == "" || item.Status == status {
			out = append(out, item)
		}
	}
	return out
}

func createdAt(p models.Provider) time.Time {
	if p.CreatedAt == nil {
		return time.Time{}
	}
	return *p.CreatedAt
}

func timePtr(v interface{}) *time.Time {
	t, ok := v.(time.Time)
	if !ok {
		return nil
	}
	return &t
}

func apply(p *models.Provider, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "status":
			p.Status, _ = v.(string)
		case "verified":
			p.Verified, _ = v.(bool)
		case "paymentStatus":
			p.PaymentStatus, _ = v.(string)
		case "rejectionReason":
			p.RejectionReason, _ = v.(string)
		case "adminNotes":
			p.AdminNotes, _ = v.(string)
		case "billingCycle":
			p.BillingCycle, _ = v.(string)
		case "lastProcessedBy":
			p.LastProcessedBy, _ = v.(string)
		case "availabilityStatus":
			p.AvailabilityStatus, _ = v.(string)
		case "subscriptionStartDate":
			p.SubscriptionStartDate = timePtr(v)
		case "subscriptionEndDate":
			p.SubscriptionEndDate = timePtr(v)
		case "gracePeriodEndDate":
			p.GracePeriodEndDate = timePtr(v)
		case "lastPaymentDate":
			p.LastPaymentDate = timePtr(v)
		case "updatedAt":
			p.UpdatedAt = timePtr(v)
		}
	}
}

// Reviews serves reviews newest first.
type Reviews struct {
	Items []models.Review
	Err   error
}

func (r *Reviews) ListByProvider(_ context.Context, providerID string, pageSize int64, after *repository.ReviewCursor) ([]models.Review, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	var matching []models.Review
	for _, item := range r.Items {
		if item.ProviderID == providerID {
			matching = append(matching, item)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].ID > matching[j].ID
		}
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})

	out := make([]models.Review, 0, pageSize)
	for _, item := range matching {
		if after != nil {
			older := item.CreatedAt.Before(after.CreatedAt) ||
				(item.CreatedAt.Equal(after.CreatedAt) && item.ID < after.ID)
			if !older {
				continue
			}
		}
		out = append(out, item)
		if int64(len(out)) == pageSize {
			break
		}
	}
	return out, nil
}

// ActivityLogs is an append-only slice.
type ActivityLogs struct {
	mu      sync.Mutex
	Entries []models.ActivityLog
	Err     error
}

func (a *ActivityLogs) Append(_ context.Context, entry *models.ActivityLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.Entries = append(a.Entries, *entry)
	return nil
}

func (a *ActivityLogs) Recent(_ context.Context, limit int64) ([]models.ActivityLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	out := make([]models.ActivityLog, 0, len(a.Entries))
	for i := len(a.Entries) - 1; i >= 0; i-- {
		out = append(out, a.Entries[i])
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

// Users indexes accounts by id and email.
type Users struct {
	mu    sync.Mutex
	items []models.User
	Err   error
}

func (u *Users) Create(_ context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	user.ID = uint(len(u.items) + 1)
	u.items = append(u.items, *user)
	return nil
}

func (u *Users) GetByID(_ context.Context, id uint) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	for _, item := range u.items {
		if item.ID == id {
			out := item
			return &out, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user", strconv.FormatUint(uint64(id), 10))
}

func (u *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	for _, item := range u.items {
		if item.Email == email {
			out := item
			return &out, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user", email)
}

func (u *Users) TouchLastLogin(_ context.Context, id uint, at time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := range u.items {
		if u.items[i].ID == id {
			u.items[i].LastLoginAt = &at
		}
	}
	return nil
}

// AdminRegistry is a set of user ids.
type AdminRegistry struct {
	mu  sync.Mutex
	ids map[uint]string
	Err error
}

func (a *AdminRegistry) IsRegistered(_ context.Context, userID uint) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return false, a.Err
	}
	_, ok := a.ids[userID]
	return ok, nil
}

func (a *AdminRegistry) Register(_ context.Context, userID uint, grantedBy string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ids == nil {
		a.ids = map[uint]string{}
	}
	a.ids[userID] = grantedBy
	return nil
}

// NewRepositories wires fresh in-memory repositories around providers.
func NewRepositories(providers *Providers) *repository.Repositories {
	return &repository.Repositories{
		Provider:      providers,
		Review:        &Reviews{},
		ActivityLog:   &ActivityLogs{},
		User:          &Users{},
		AdminRegistry: &AdminRegistry{},
	}
}
