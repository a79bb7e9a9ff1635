// Package metrics содержит Prometheus-коллекторы консоли.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/gym-console/internal/classifier"
)

// Metrics коллекторы вызовов backend'а и классификации участников.
type Metrics struct {
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	MembersByStatus *prometheus.GaugeVec
	NewMembers      prometheus.Gauge
	RemindersSent   *prometheus.CounterVec
}

// New создаёт коллекторы и регистрирует их в reg. При nil reg регистрация пропускается.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Requests to the gym backend by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Latency of requests to the gym backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		MembersByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "members_by_status",
			Help: "Members in each status after the last dashboard refresh.",
		}, []string{"status"}),
		NewMembers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "new_members_this_month",
			Help: "Members who joined in the current calendar month.",
		}),
		RemindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Delivered reminders by kind and channel.",
		}, []string{"kind", "channel"}),
	}
	if reg != nil {
		reg.MustRegister(m.BackendRequests, m.BackendDuration, m.MembersByStatus, m.NewMembers, m.RemindersSent)
	}
	return m
}

// ObserveClassification обновляет гауги по результату классификации.
func (m *Metrics) ObserveClassification(r classifier.Result) {
	if m == nil {
		return
	}
	m.MembersByStatus.WithLabelValues(string(classifier.StatusActive)).Set(float64(len(r.Active)))
	m.MembersByStatus.WithLabelValues(string(classifier.StatusExpiringSoon)).Set(float64(len(r.ExpiringSoon)))
	m.MembersByStatus.WithLabelValues(string(classifier.StatusExpired)).Set(float64(len(r.Expired)))
	m.MembersByStatus.WithLabelValues(string(classifier.StatusUnknown)).Set(float64(len(r.Unknown)))
	m.MembersByStatus.WithLabelValues("pending_payment").Set(float64(len(r.PendingPayment)))
	m.NewMembers.Set(float64(r.NewMembersThisMonth))
}
