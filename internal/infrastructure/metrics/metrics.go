package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Instruction metrics
	Instructions        *prometheus.CounterVec
	InstructionDuration prometheus.Histogram
	TransferAmount      *prometheus.HistogramVec

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec
	OutboxPurged    prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registerer
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all Prometheus metrics and registers them on reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Instruction metrics
		Instructions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payflow_instructions_total",
				Help: "Total number of processed instructions by outcome",
			},
			[]string{"status", "status_code"},
		),
		InstructionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "payflow_instruction_duration_seconds",
			Help:    "Duration of instruction evaluation",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}),
		TransferAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payflow_transfer_amount",
				Help:    "Executed transfer amounts",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"currency"},
		),

		// Outbox metrics
		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payflow_outbox_events_published_total",
				Help: "Total outbox events handed to the broker by result",
			},
			[]string{"result"},
		),
		OutboxPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "payflow_outbox_events_purged_total",
			Help: "Total published outbox events removed by housekeeping",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payflow_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payflow_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "payflow_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "payflow_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}

// ObserveInstruction records one engine outcome.
func (m *Metrics) ObserveInstruction(status domain.Status, code domain.StatusCode, duration time.Duration) {
	m.Instructions.WithLabelValues(string(status), string(code)).Inc()
	m.InstructionDuration.Observe(duration.Seconds())
}

// ObserveTransfer records the amount of an executed transfer.
func (m *Metrics) ObserveTransfer(currency string, amount decimal.Decimal) {
	m.TransferAmount.WithLabelValues(currency).Observe(amount.InexactFloat64())
}

// ObservePublish records the result of handing one outbox event to the broker.
func (m *Metrics) ObservePublish(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.OutboxPublished.WithLabelValues(result).Inc()
}

// ObservePurge records how many published events housekeeping removed.
func (m *Metrics) ObservePurge(n int64) {
	m.OutboxPurged.Add(float64(n))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackInFlight counts a request as in flight until the returned func is called.
func (m *Metrics) TrackInFlight() func() {
	m.HTTPInFlight.Inc()
	return m.HTTPInFlight.Dec
}

// ObserveRateLimited records a request rejected by the rate limiter.
func (m *Metrics) ObserveRateLimited() {
	m.RateLimitHits.Inc()
}
