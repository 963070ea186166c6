package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DashboardMetrics counts admin activity and degraded store access.
type DashboardMetrics interface {
	IncAdminAction(action string)
	IncDegradedQuery(collection string)
	IncReadFailure(op string)
}

type dashboardMetrics struct {
	adminActions  *prometheus.CounterVec
	degradedReads *prometheus.CounterVec
	failedReads   *prometheus.CounterVec
}

// NewDashboardMetrics registers the dashboard counters on registry.
func NewDashboardMetrics(registry prometheus.Registerer) DashboardMetrics {
	return &dashboardMetrics{
		adminActions: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "provideradmin_admin_actions_total",
				Help: "Mutating admin actions by kind",
			},
			[]string{"action"},
		),
		degradedReads: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "provideradmin_degraded_queries_total",
				Help: "Ordered queries that fell back to an unordered read",
			},
			[]string{"collection"},
		),
		failedReads: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "provideradmin_read_failures_total",
				Help: "Read operations that returned an error",
			},
			[]string{"op"},
		),
	}
}

func (m *dashboardMetrics) IncAdminAction(action string) {
	m.adminActions.WithLabelValues(action).Inc()
}

func (m *dashboardMetrics) IncDegradedQuery(collection string) {
	m.degradedReads.WithLabelValues(collection).Inc()
}

func (m *dashboardMetrics) IncReadFailure(op string) {
	m.failedReads.WithLabelValues(op).Inc()
}

// NopDashboardMetrics discards every observation.
type NopDashboardMetrics struct{}

func (NopDashboardMetrics) IncAdminAction(string)   {}
func (NopDashboardMetrics) IncDegradedQuery(string) {}
func (NopDashboardMetrics) IncReadFailure(string)   {}
