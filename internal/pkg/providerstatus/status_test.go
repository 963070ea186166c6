package providerstatus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findmyridesa/provider-admin/app/models"
)

var now = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestSubscription(t *testing.T) {
	tests := []struct {
		name  string
		end   *time.Time
		grace *time.Time
		want  SubscriptionStatus
	}{
		{name: "no end date", end: nil, grace: at(48 * time.Hour), want: SubscriptionExpired},
		{name: "no dates", want: SubscriptionExpired},
		{name: "running", end: at(3 * day), want: SubscriptionActive},
		{name: "ends right now", end: at(0), grace: at(5 * day), want: SubscriptionGrace},
		{name: "inside grace", end: at(-2 * day), grace: at(3 * day), want: SubscriptionGrace},
		{name: "grace ends right now", end: at(-2 * day), grace: at(0), want: SubscriptionGrace},
		{name: "grace over", end: at(-10 * day), grace: at(-5 * day), want: SubscriptionExpired},
		{name: "ended without grace", end: at(-time.Second), want: SubscriptionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subscription(now, tt.end, tt.grace))
		})
	}
}

func TestSubscriptionLapsed(t *testing.T) {
	assert.True(t, SubscriptionLapsed(now, nil, nil))
	assert.True(t, SubscriptionLapsed(now, at(-10*day), at(-5*day)))
	assert.False(t, SubscriptionLapsed(now, at(3*day), nil))
	assert.False(t, SubscriptionLapsed(now, at(-2*day), at(2*day)))
	// a grace date alone keeps the provider visible
	assert.False(t, SubscriptionLapsed(now, nil, at(day)))
}

func TestCompliance(t *testing.T) {
	_, ok := Compliance(now, nil)
	assert.False(t, ok)

	tests := []struct {
		name     string
		expiry   *time.Time
		wantBand ComplianceBand
		wantDays int
		label    string
	}{
		{name: "expired long ago", expiry: at(-12 * day), wantBand: BandExpired, wantDays: -12, label: "Expired 12 days ago"},
		{name: "expires right now", expiry: at(0), wantBand: BandExpired, wantDays: 0, label: "Expired today"},
		{name: "partial day counts as one", expiry: at(time.Hour), wantBand: BandWarning, wantDays: 1, label: "Expires in 1 day"},
		{name: "exactly thirty days", expiry: at(30 * day), wantBand: BandWarning, wantDays: 30, label: "Expires in 30 days"},
		{name: "just past thirty days", expiry: at(30*day + time.Minute), wantBand: BandOK, wantDays: 31, label: "Valid for 31 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := Compliance(now, tt.expiry)
			require.True(t, ok)
			assert.Equal(t, tt.wantBand, w.Band)
			assert.Equal(t, tt.wantDays, w.DaysRemaining)
			assert.Equal(t, tt.label, w.Label())
		})
	}
}

func TestComplianceBandBoundaries(t *testing.T) {
	for offset := -40 * day; offset <= 40*day; offset += 7 * time.Hour {
		d := now.Add(offset)
		w, ok := Compliance(now, &d)
		require.True(t, ok)
		switch {
		case !d.After(now):
			assert.Equal(t, BandExpired, w.Band, offset)
		case !d.After(now.Add(30 * day)):
			assert.Equal(t, BandWarning, w.Band, offset)
		default:
			assert.Equal(t, BandOK, w.Band, offset)
		}
	}
}

func TestComplianceWarnings(t *testing.T) {
	p := &models.Provider{
		Documents: map[string]models.Document{
			models.DocumentRoadworthy: {URL: "https://files.example.com/rw.pdf", ExpiryDate: at(10 * day)},
			models.DocumentPrDP:       {URL: "https://files.example.com/prdp.pdf", ExpiryDate: at(-day)},
			"idCopy":                  {URL: "https://files.example.com/id.jpg"},
		},
	}

	warnings := ComplianceWarnings(now, p)
	require.Len(t, warnings, 2)
	assert.Equal(t, models.DocumentPrDP, warnings[0].Document)
	assert.Equal(t, BandExpired, warnings[0].Band)
	assert.Equal(t, models.DocumentRoadworthy, warnings[1].Document)
	assert.Equal(t, BandWarning, warnings[1].Band)

	assert.Empty(t, ComplianceWarnings(now, &models.Provider{}))
}

func TestAvailability(t *testing.T) {
	tests := map[string]AvailabilityStatus{
		"":                        Available,
		"available":               Available,
		"Full":                    FullyBooked,
		" FULLY BOOKED ":          FullyBooked,
		"unavailable":             TemporarilyUnavailable,
		"Temporary":               TemporarilyUnavailable,
		"temporarily unavailable": TemporarilyUnavailable,
		"busy":                    Available,
	}
	for raw, want := range tests {
		assert.Equal(t, want, Availability(raw), raw)
	}
}

func TestExpired(t *testing.T) {
	assert.False(t, Expired(now, nil))
	assert.True(t, Expired(now, at(0)))
	assert.True(t, Expired(now, at(-day)))
	assert.False(t, Expired(now, at(day)))
}
