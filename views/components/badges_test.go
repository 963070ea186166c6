package components

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findmyridesa/provider-admin/app/models"
	"github.com/findmyridesa/provider-admin/internal/pkg/providerstatus"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	return sb.String()
}

func TestBadges(t *testing.T) {
	tests := []struct {
		name string
		c    templ.Component
		want string
	}{
		{"status", StatusBadge("active"), `<span class="badge badge-active">ACTIVE</span>`},
		{"missing status", StatusBadge(""), `<span class="badge badge-pending">PENDING</span>`},
		{"paid", PaymentBadge("paid"), `<span class="badge badge-active">PAID</span>`},
		{"unpaid", PaymentBadge(""), `<span class="badge badge-pending">UNPAID</span>`},
		{"referral", SourceBadge(models.Source{Type: "friend", ReferredName: "Sipho"}), `<span class="badge badge-info">Referral: Sipho</span>`},
		{"other source", SourceBadge(models.Source{Type: "Facebook"}), `<span class="badge badge-info">Facebook</span>`},
		{"booked", AvailabilityBadge("Full"), `<span class="badge badge-rejected">Fully Booked</span>`},
		{"unavailable", AvailabilityBadge("temporary"), `<span class="badge badge-pending">Temporarily Unavailable</span>`},
		{"available", AvailabilityBadge(""), `<span class="badge badge-active">Available</span>`},
		{"grace", SubscriptionBadge(providerstatus.SubscriptionGrace), `<span class="badge badge-pending">Grace Period</span>`},
		{"hidden reason", ReasonBadge("Unpaid"), `<span class="badge badge-rejected">Unpaid</span>`},
		{"escaped", StatusBadge("<b>"), `<span class="badge badge-&lt;b&gt;">&lt;B&gt;</span>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.c))
		})
	}
}
