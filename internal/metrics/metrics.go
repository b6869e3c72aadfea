package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector manages Prometheus metrics for the card service. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	operationsRecorded *prometheus.CounterVec
	operationsRejected *prometheus.CounterVec
	operationAmount    prometheus.Histogram
	alertsGenerated    *prometheus.CounterVec
	cardTransitions    *prometheus.CounterVec
	digestsSent        prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates a collector with its own registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operationsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "card_operations_recorded_total",
			Help: "Card operations accepted and stored, by type",
		}, []string{"type"}),
		operationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "card_operations_rejected_total",
			Help: "Card operations refused, by reason",
		}, []string{"reason"}),
		operationAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "card_operation_amount",
			Help:    "Amount of accepted card operations",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),
		alertsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_alerts_generated_total",
			Help: "Fraud alerts generated, by level",
		}, []string{"level"}),
		cardTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "card_status_transitions_total",
			Help: "Card lifecycle transitions, by target status",
		}, []string{"status"}),
		digestsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fraud_alert_digests_sent_total",
			Help: "Critical alert digest e-mails sent",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests handled, by route, method and status",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency, by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	c.registry.MustRegister(
		c.operationsRecorded,
		c.operationsRejected,
		c.operationAmount,
		c.alertsGenerated,
		c.cardTransitions,
		c.digestsSent,
		c.httpRequestsTotal,
		c.httpRequestDuration,
		collectors.NewGoCollector(),
	)
	return c
}

// Handler exposes the registry for scraping
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) OperationRecorded(opType string, amount float64) {
	if c == nil {
		return
	}
	c.operationsRecorded.WithLabelValues(opType).Inc()
	c.operationAmount.Observe(amount)
}

func (c *Collector) OperationRejected(reason string) {
	if c == nil {
		return
	}
	c.operationsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) AlertGenerated(level string) {
	if c == nil {
		return
	}
	c.alertsGenerated.WithLabelValues(level).Inc()
}

func (c *Collector) CardTransition(status string) {
	if c == nil {
		return
	}
	c.cardTransitions.WithLabelValues(status).Inc()
}

func (c *Collector) DigestSent() {
	if c == nil {
		return
	}
	c.digestsSent.Inc()
}

// ObserveHTTP records one handled request
func (c *Collector) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
