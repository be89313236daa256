package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the failover service.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
	startsTotal            prometheus.Counter
	stopsTotal             prometheus.Counter
	endpointSwitchesTotal  prometheus.Counter
	cycleRetriesTotal      prometheus.Counter
	streamReadyTotal       prometheus.Counter
	permanentFailuresTotal prometheus.Counter
	playbackDesired        prometheus.Gauge
	currentEndpoint        prometheus.Gauge
}

// New creates and registers Prometheus metrics for the failover service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "failover_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "failover_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		startsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "failover_starts_total",
			Help: "Total number of accepted start commands",
		}),
		stopsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "failover_stops_total",
			Help: "Total number of accepted stop commands",
		}),
		endpointSwitchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "failover_endpoint_switches_total",
			Help: "Total number of failovers to the next endpoint",
		}),
		cycleRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "failover_cycle_retries_total",
			Help: "Total number of full-cycle backoff retries",
		}),
		streamReadyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "failover_stream_ready_total",
			Help: "Total number of times the stream reached ready",
		}),
		permanentFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "failover_permanent_failures_total",
			Help: "Total number of permanent failures after exhausting retries",
		}),
		playbackDesired: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "failover_playback_desired",
			Help: "Whether playback is currently desired (1) or stopped (0)",
		}),
		currentEndpoint: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "failover_current_endpoint_index",
			Help: "Index of the currently loaded endpoint",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.startsTotal,
		m.stopsTotal,
		m.endpointSwitchesTotal,
		m.cycleRetriesTotal,
		m.streamReadyTotal,
		m.permanentFailuresTotal,
		m.playbackDesired,
		m.currentEndpoint,
	)

	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the HTTP error counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncStarts increments the accepted-starts counter.
func (m *Metrics) IncStarts() {
	m.startsTotal.Inc()
}

// IncStops increments the accepted-stops counter.
func (m *Metrics) IncStops() {
	m.stopsTotal.Inc()
}

// IncEndpointSwitches increments the endpoint failover counter.
func (m *Metrics) IncEndpointSwitches() {
	m.endpointSwitchesTotal.Inc()
}

// IncCycleRetries increments the full-cycle retry counter.
func (m *Metrics) IncCycleRetries() {
	m.cycleRetriesTotal.Inc()
}

// IncStreamReady increments the stream-ready counter.
func (m *Metrics) IncStreamReady() {
	m.streamReadyTotal.Inc()
}

// IncPermanentFailures increments the permanent-failure counter.
func (m *Metrics) IncPermanentFailures() {
	m.permanentFailuresTotal.Inc()
}

// SetPlaybackDesired sets the desired gauge from the session state.
func (m *Metrics) SetPlaybackDesired(desired bool) {
	if desired {
		m.playbackDesired.Set(1)
	} else {
		m.playbackDesired.Set(0)
	}
}

// SetCurrentEndpoint sets the current endpoint index gauge.
func (m *Metrics) SetCurrentEndpoint(index int) {
	m.currentEndpoint.Set(float64(index))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values from the
// controller's session state.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
