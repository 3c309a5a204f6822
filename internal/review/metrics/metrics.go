package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the access review module.
// Tracks campaign lifecycle counts and the latency of gate/report paths.
type Metrics struct {
	CampaignsCreated   prometheus.Counter
	CampaignsCompleted prometheus.Counter
	DecisionsApplied   *prometheus.CounterVec
	NotifyFallbacks    prometheus.Counter
	CompleteDuration   prometheus.Histogram
	ReportDuration     prometheus.Histogram
}

// New creates a Metrics instance with all review module metrics registered.
func New() *Metrics {
	return &Metrics{
		CampaignsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recert_campaigns_created_total",
			Help: "Total number of access review campaigns created",
		}),
		CampaignsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recert_campaigns_completed_total",
			Help: "Total number of campaigns that passed the completion gate",
		}),
		DecisionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recert_decisions_applied_total",
			Help: "Total number of review decisions applied, by verdict",
		}, []string{"decision"}),
		NotifyFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recert_notify_fallbacks_total",
			Help: "Total number of notifications that fell back to a composed message",
		}),
		CompleteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "recert_complete_duration_seconds",
			Help:    "Duration of campaign completion gate checks",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ReportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "recert_report_duration_seconds",
			Help:    "Duration of CSV report generation including the snapshot read",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCampaignsCreated records a successful campaign creation.
func (m *Metrics) IncrementCampaignsCreated() {
	m.CampaignsCreated.Inc()
}

// IncrementCampaignsCompleted records a campaign passing the completion gate.
func (m *Metrics) IncrementCampaignsCompleted() {
	m.CampaignsCompleted.Inc()
}

// IncrementDecisionsApplied records one applied decision by verdict.
func (m *Metrics) IncrementDecisionsApplied(decision string) {
	m.DecisionsApplied.WithLabelValues(decision).Inc()
}

// IncrementNotifyFallbacks records a composed-message fallback.
func (m *Metrics) IncrementNotifyFallbacks() {
	m.NotifyFallbacks.Inc()
}

// ObserveComplete records the duration of a completion gate call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveComplete(start time.Time) {
	m.CompleteDuration.Observe(time.Since(start).Seconds())
}

// ObserveReport records the duration of a report generation call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveReport(start time.Time) {
	m.ReportDuration.Observe(time.Since(start).Seconds())
}
