package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the clip service.
type Metrics struct {
	registry                   *prometheus.Registry
	requestsTotal              prometheus.Counter
	previewsTotal              *prometheus.CounterVec
	attachmentsRegisteredTotal prometheus.Counter
	replaysFinishedTotal       prometheus.Counter
	activeReplays              prometheus.Gauge
	errorsTotal                prometheus.Counter
}

// New creates and registers Prometheus metrics for the clip service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_clips_requests_total",
		Help: "Total number of HTTP requests received",
	})
	previewsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replay_clips_previews_total",
		Help: "Total number of clip previews served, by render state",
	}, []string{"state"})
	attachmentsRegisteredTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_clips_attachments_registered_total",
		Help: "Total number of attachments successfully registered",
	})
	replaysFinishedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_clips_replays_finished_total",
		Help: "Total number of replays finished",
	})
	activeReplays := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "replay_clips_active_replays",
		Help: "Number of replays that are still recording",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_clips_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		previewsTotal,
		attachmentsRegisteredTotal,
		replaysFinishedTotal,
		activeReplays,
		errorsTotal,
	)

	return &Metrics{
		registry:                   registry,
		requestsTotal:              requestsTotal,
		previewsTotal:              previewsTotal,
		attachmentsRegisteredTotal: attachmentsRegisteredTotal,
		replaysFinishedTotal:       replaysFinishedTotal,
		activeReplays:              activeReplays,
		errorsTotal:                errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncPreviews increments the preview counter for the given render state.
func (m *Metrics) IncPreviews(state string) {
	m.previewsTotal.WithLabelValues(state).Inc()
}

// IncAttachmentsRegistered increments the attachments registered counter.
func (m *Metrics) IncAttachmentsRegistered() {
	m.attachmentsRegisteredTotal.Inc()
}

// IncReplaysFinished increments the replays finished counter.
func (m *Metrics) IncReplaysFinished() {
	m.replaysFinishedTotal.Inc()
}

// SetActiveReplays sets the active replays gauge.
func (m *Metrics) SetActiveReplays(n int) {
	m.activeReplays.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
