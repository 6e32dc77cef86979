package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the login flow's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	LoginsTotal       *prometheus.CounterVec
	ProvisionedTotal  *prometheus.CounterVec
	SyncFailuresTotal prometheus.Counter
	DuplicateRetries  prometheus.Counter
}

// New creates the collectors and registers them with registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_logins_total",
				Help: "SSO logins by outcome (established or the denial code)",
			},
			[]string{"outcome"},
		),
		ProvisionedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sso_accounts_provisioned_total",
				Help: "Accounts created on first login, by privilege",
			},
			[]string{"privilege"},
		),
		SyncFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sso_sync_partial_failures_total",
				Help: "Logins that completed with a failed profile sync write",
			},
		),
		DuplicateRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sso_duplicate_external_id_retries_total",
				Help: "Concurrent first logins that lost the insert race and re-resolved",
			},
		),
	}

	registry.MustRegister(
		m.LoginsTotal,
		m.ProvisionedTotal,
		m.SyncFailuresTotal,
		m.DuplicateRetries,
	)

	return m
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Provisioned(privilege string) {
	if m == nil {
		return
	}
	m.ProvisionedTotal.WithLabelValues(privilege).Inc()
}

func (m *Metrics) SyncFailure() {
	if m == nil {
		return
	}
	m.SyncFailuresTotal.Inc()
}

func (m *Metrics) DuplicateRetry() {
	if m == nil {
		return
	}
	m.DuplicateRetries.Inc()
}
