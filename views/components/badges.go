// Package components holds the small templ components shared by the pages.
package components

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/providerstatus"
)

// StatusBadge shows the lifecycle status. Missing statuses read as pending.
func StatusBadge(status string) templ.Component {
	s := strings.TrimSpace(status)
	if s == "" {
		s = models.PROVIDER_STATUS_PENDING
	}
	return badge("badge-"+s, strings.ToUpper(s))
}

func PaymentBadge(status string) templ.Component {
	if status == models.PAYMENT_STATUS_PAID {
		return badge("badge-active", "PAID")
	}
	return badge("badge-pending", "UNPAID")
}

func SourceBadge(source models.Source) templ.Component {
	label := source.Label()
	if label == "" {
		label = models.SourceTypeOther
	}
	return badge("badge-info", label)
}

func AvailabilityBadge(raw string) templ.Component {
	switch a := providerstatus.Availability(raw); a {
	case providerstatus.FullyBooked:
		return badge("badge-rejected", string(a))
	case providerstatus.TemporarilyUnavailable:
		return badge("badge-pending", string(a))
	default:
		return badge("badge-active", string(a))
	}
}

func SubscriptionBadge(status providerstatus.SubscriptionStatus) templ.Component {
	switch status {
	case providerstatus.SubscriptionActive:
		return badge("badge-active", string(status))
	case providerstatus.SubscriptionGrace:
		return badge("badge-pending", "Grace Period")
	default:
		return badge("badge-rejected", string(status))
	}
}

func ComplianceBadge(w providerstatus.ComplianceWarning) templ.Component {
	switch w.Band {
	case providerstatus.BandExpired:
		return badge("badge-rejected", w.Label())
	case providerstatus.BandWarning:
		return badge("badge-pending", w.Label())
	default:
		return badge("badge-active", w.Label())
	}
}

func PaymentTypeBadge(paymentType string) templ.Component {
	return badge("badge-info", paymentType)
}

// ReasonBadge marks why a provider is hidden from the public listing.
func ReasonBadge(reason string) templ.Component {
	return badge("badge-rejected", reason)
}
