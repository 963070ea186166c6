// Package hidden works out which providers are missing from the public
// listing and why.
package hidden

import (
	"context"
	"fmt"
	"time"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/providerstatus"
)

const (
	ReasonRejected               = "Profile Rejected by Admin"
	ReasonPending                = "Pending Admin Approval"
	ReasonFullyBooked            = "Fully Booked"
	ReasonTemporarilyUnavailable = "Temporarily Unavailable"
	ReasonSubscriptionExpired    = "Subscription Not Paid / Expired"
	ReasonPrDPExpired            = "PrDP Permit Expired"
	ReasonRoadworthyExpired      = "Roadworthy Certificate Expired"
)

// Source lists every provider with the given lifecycle status.
type Source interface {
	ListByStatus(ctx context.Context, status string) ([]models.Provider, error)
}

// Entry is a hidden provider together with every reason it is hidden.
type Entry struct {
	Provider models.Provider `json:"provider"`
	Reasons  []string        `json:"reasons"`
}

// Aggregate collects rejected, pending and non-listable active providers, in
// that order. The first read failure aborts the whole aggregation.
func Aggregate(ctx context.Context, src Source, now time.Time) ([]Entry, error) {
	rejected, err := src.ListByStatus(ctx, models.PROVIDER_STATUS_REJECTED)
	if err != nil {
		return nil, fmt.Errorf("list rejected providers: %w", err)
	}
	pending, err := src.ListByStatus(ctx, models.PROVIDER_STATUS_PENDING)
	if err != nil {
		return nil, fmt.Errorf("list pending providers: %w", err)
	}
	active, err := src.ListByStatus(ctx, models.PROVIDER_STATUS_ACTIVE)
	if err != nil {
		return nil, fmt.Errorf("list active providers: %w", err)
	}

	entries := make([]Entry, 0, len(rejected)+len(pending))
	for _, p := range rejected {
		entries = append(entries, Entry{Provider: p, Reasons: []string{ReasonRejected}})
	}
	for _, p := range pending {
		entries = append(entries, Entry{Provider: p, Reasons: []string{ReasonPending}})
	}
	for i := range active {
		if reasons := ActiveReasons(now, &active[i]); len(reasons) > 0 {
			entries = append(entries, Entry{Provider: active[i], Reasons: reasons})
		}
	}

	return dedupe(entries), nil
}

// ActiveReasons evaluates an active provider against the listing rules.
// An empty result means the provider is publicly visible.
func ActiveReasons(now time.Time, p *models.Provider) []string {
	var reasons []string

	switch providerstatus.Availability(p.AvailabilityStatus) {
	case providerstatus.FullyBooked:
		reasons = append(reasons, ReasonFullyBooked)
	case providerstatus.TemporarilyUnavailable:
		reasons = append(reasons, ReasonTemporarilyUnavailable)
	}

	if providerstatus.SubscriptionLapsed(now, p.SubscriptionEndDate, p.GracePeriodEndDate) {
		reasons = append(reasons, ReasonSubscriptionExpired)
	}
	if providerstatus.Expired(now, p.DocumentExpiry(models.DocumentPrDP)) {
		reasons = append(reasons, ReasonPrDPExpired)
	}
	if providerstatus.Expired(now, p.DocumentExpiry(models.DocumentRoadworthy)) {
		reasons = append(reasons, ReasonRoadworthyExpired)
	}

	return reasons
}

// dedupe keeps the first entry per provider id. Reason lists of later
// duplicates are dropped, not merged.
func dedupe(entries []Entry) []Entry {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if _, ok := seen[e.Provider.ID]; ok {
			continue
		}
		seen[e.Provider.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
