// Package metrics exposes the storefront's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atinyakov/storefront/internal/middleware"
)

// Recorder is what the HTTP handlers report to.
type Recorder interface {
	RecordCartOp(op string)
	RecordOrderPlaced(total float64)
	RecordPersistFailure(key string)
	RecordHTTPStatus(statusCode int)
	RecordLatency(d time.Duration)
}

// Collector records storefront metrics into a Prometheus registry.
type Collector struct {
	cartOps         *prometheus.CounterVec
	ordersPlaced    prometheus.Counter
	orderValue      prometheus.Counter
	persistFailures *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	latency         prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cartOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_operations_total",
			Help: "Cart and wishlist mutations by operation.",
		}, []string{"op"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders placed through checkout.",
		}),
		orderValue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_order_value_total",
			Help: "Sum of the totals of placed orders.",
		}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_persist_failures_total",
			Help: "State changes applied in memory but not written to the store.",
		}, []string{"key"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_http_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.cartOps,
		c.ordersPlaced,
		c.orderValue,
		c.persistFailures,
		c.httpStatus,
		c.latency,
	)
	return c
}

// RecordCartOp counts a cart or wishlist mutation.
func (c *Collector) RecordCartOp(op string) {
	c.cartOps.WithLabelValues(op).Inc()
}

// RecordOrderPlaced counts a placed order and its value.
func (c *Collector) RecordOrderPlaced(total float64) {
	c.ordersPlaced.Inc()
	c.orderValue.Add(total)
}

// RecordPersistFailure counts a write that did not reach the store.
func (c *Collector) RecordPersistFailure(key string) {
	c.persistFailures.WithLabelValues(key).Inc()
}

// RecordHTTPStatus counts a response.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLatency observes the duration of a request.
func (c *Collector) RecordLatency(d time.Duration) {
	c.latency.Observe(d.Seconds())
}

// Middleware records the status and latency of every request.
func Middleware(rec Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := middleware.NewStatusRecorder(w)
			next.ServeHTTP(sr, r)
			rec.RecordHTTPStatus(sr.Status)
			rec.RecordLatency(time.Since(start))
		})
	}
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute serves Handler on /metrics.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordCartOp(string) {}
func (Nop) RecordOrderPlaced(float64) {}
func (Nop) RecordPersistFailure(string) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordLatency(time.Duration) {}
