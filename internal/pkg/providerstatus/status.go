// Package providerstatus derives the categorical statuses shown on the
// dashboard from a provider's stored timestamps. Every function takes the
// evaluation time explicitly and has no side effects.
package providerstatus

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/findmyridesa/provider-admin/app/models"
)

const (
	// ComplianceWarningDays is the window before expiry in which a document
	// is flagged.
	ComplianceWarningDays = 30

	day = 24 * time.Hour
)

// SubscriptionStatus is the derived state of a provider's subscription.
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "Active"
	SubscriptionGrace   SubscriptionStatus = "Grace"
	SubscriptionExpired SubscriptionStatus = "Expired"
)

// Subscription returns Active while now is before end, Grace while now is
// within the grace period, and Expired otherwise. A provider without an end
// date never subscribed and is Expired.
func Subscription(now time.Time, end, grace *time.Time) SubscriptionStatus {
	if end == nil {
		return SubscriptionExpired
	}
	if now.Before(*end) {
		return SubscriptionActive
	}
	if grace != nil && !now.After(*grace) {
		return SubscriptionGrace
	}
	return SubscriptionExpired
}

// ProviderSubscription is Subscription applied to a provider record.
func ProviderSubscription(now time.Time, p *models.Provider) SubscriptionStatus {
	return Subscription(now, p.SubscriptionEndDate, p.GracePeriodEndDate)
}

// ComplianceBand classifies how close a document is to expiry.
type ComplianceBand string

const (
	BandOK      ComplianceBand = "OK"
	BandWarning ComplianceBand = "Warning"
	BandExpired ComplianceBand = "Expired"
)

// ComplianceWarning is the evaluated state of one expiring document.
type ComplianceWarning struct {
	Document      string
	ExpiryDate    time.Time
	DaysRemaining int
	Band          ComplianceBand
}

// Label is the human readable summary, e.g. "Expires in 12 days".
func (w ComplianceWarning) Label() string {
	switch w.Band {
	case BandExpired:
		if w.DaysRemaining == 0 {
			return "Expired today"
		}
		return fmt.Sprintf("Expired %s ago", plural(-w.DaysRemaining))
	case BandWarning:
		return fmt.Sprintf("Expires in %s", plural(w.DaysRemaining))
	default:
		return fmt.Sprintf("Valid for %s", plural(w.DaysRemaining))
	}
}

func plural(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// Compliance evaluates an expiry date. ok is false when there is no expiry
// date, in which case the document is not evaluated at all.
func Compliance(now time.Time, expiry *time.Time) (w ComplianceWarning, ok bool) {
	if expiry == nil {
		return ComplianceWarning{}, false
	}
	days := int(math.Ceil(float64(expiry.Sub(now)) / float64(day)))
	w = ComplianceWarning{
		ExpiryDate:    *expiry,
		DaysRemaining: days,
	}
	switch {
	case days <= 0:
		w.Band = BandExpired
	case days <= ComplianceWarningDays:
		w.Band = BandWarning
	default:
		w.Band = BandOK
	}
	return w, true
}

// ComplianceWarnings evaluates every expiring document type of p, in a fixed
// order. Documents without an expiry date are skipped.
func ComplianceWarnings(now time.Time, p *models.Provider) []ComplianceWarning {
	var out []ComplianceWarning
	for _, key := range []string{models.DocumentPrDP, models.DocumentRoadworthy} {
		w, ok := Compliance(now, p.DocumentExpiry(key))
		if !ok {
			continue
		}
		w.Document = key
		out = append(out, w)
	}
	return out
}

// AvailabilityStatus is the canonical tri-state availability of a provider.
type AvailabilityStatus string

const (
	Available              AvailabilityStatus = "Available"
	FullyBooked            AvailabilityStatus = "Fully Booked"
	TemporarilyUnavailable AvailabilityStatus = "Temporarily Unavailable"
)

// Availability normalizes the free-form availability field. Matching is
// case-insensitive; anything unrecognised counts as available.
func Availability(raw string) AvailabilityStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "full", "fully booked":
		return FullyBooked
	case "unavailable", "temporary", "temporarily unavailable":
		return TemporarilyUnavailable
	default:
		return Available
	}
}

// Expired reports whether t is present and not after now.
func Expired(now time.Time, t *time.Time) bool {
	return t != nil && !t.After(now)
}

// SubscriptionLapsed reports whether both the paid period and the grace
// period are absent or over. The grace end is inclusive, matching Subscription.
func SubscriptionLapsed(now time.Time, end, grace *time.Time) bool {
	endOver := end == nil || !now.Before(*end)
	graceOver := grace == nil || now.After(*grace)
	return endOver && graceOver
}
