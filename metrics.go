package pitchside

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eringen/pitchside/feed"
)

// Metrics is the app's Prometheus instrumentation. Each App owns its own
// registry so several apps (or tests) can live in one process.
type Metrics struct {
	Registry *prometheus.Registry

	// Blocks skipped because no renderer handles their type
	MissingSlices *prometheus.CounterVec

	// News page fetches by result: "ok", "error", "dropped"
	FeedFetches *prometheus.CounterVec

	// Contact form messages by result: "sent", "failed", "limited"
	ContactMessages *prometheus.CounterVec
}

// NewMetrics creates a registry with process and Go runtime collectors and
// the site's own metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		MissingSlices: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_missing_slice_total",
			Help: "Content blocks skipped because their slice type has no renderer",
		}, []string{"slice_type"}),
		FeedFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_feed_fetches_total",
			Help: "News page fetch attempts by result",
		}, []string{"result"}),
		ContactMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_contact_messages_total",
			Help: "Contact form submissions by result",
		}, []string{"result"}),
	}
}

// MissingType implements slices.Diagnostics.
func (m *Metrics) MissingType(sliceType string) {
	if m != nil {
		m.MissingSlices.WithLabelValues(sliceType).Inc()
	}
}

// ObserveFetch records the outcome of a pager trigger.
func (m *Metrics) ObserveFetch(fetched bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.FeedFetches.WithLabelValues("error").Inc()
	case fetched:
		m.FeedFetches.WithLabelValues("ok").Inc()
	default:
		m.FeedFetches.WithLabelValues("dropped").Inc()
	}
}

// IncrementContact records a contact form outcome.
func (m *Metrics) IncrementContact(result string) {
	if m != nil {
		m.ContactMessages.WithLabelValues(result).Inc()
	}
}

// WatchViews exports the number of live news views.
func (m *Metrics) WatchViews(v *feed.Views) {
	promauto.With(m.Registry).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pitchside_feed_views",
		Help: "News views with a live pager",
	}, func() float64 { return float64(v.Len()) })
}
