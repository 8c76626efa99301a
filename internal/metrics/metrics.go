// Package metrics collects Prometheus metrics for the storefront.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services and middleware.
type Recorder interface {
	RecordRegistration()
	RecordLogin(success bool)
	RecordOrder(itemCount int, totalCents int64)
	RecordCheckoutFailure(reason string)
	RecordStockSkipped(count int)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
	orders        prometheus.Counter
	orderItems    prometheus.Counter
	revenueCents  prometheus.Counter
	checkoutFails *prometheus.CounterVec
	stockSkipped  prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_registrations_total",
			Help: "Number of accounts registered.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		orders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_total",
			Help: "Number of orders created.",
		}),
		orderItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_order_items_total",
			Help: "Units sold across all orders.",
		}),
		revenueCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_revenue_cents_total",
			Help: "Sum of order totals in cents.",
		}),
		checkoutFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_checkout_failures_total",
			Help: "Rejected or failed checkouts by reason.",
		}, []string{"reason"}),
		stockSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_stock_skipped_total",
			Help: "Order lines whose product was missing during the stock update.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.orders,
		c.orderItems,
		c.revenueCents,
		c.checkoutFails,
		c.stockSkipped,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordOrder counts one order of itemCount units worth totalCents.
func (c *Collector) RecordOrder(itemCount int, totalCents int64) {
	c.orders.Inc()
	c.orderItems.Add(float64(itemCount))
	c.revenueCents.Add(float64(totalCents))
}

func (c *Collector) RecordCheckoutFailure(reason string) {
	c.checkoutFails.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordStockSkipped(count int) {
	c.stockSkipped.Add(float64(count))
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordRegistration()                                  {}
func (Nop) RecordLogin(bool)                                     {}
func (Nop) RecordOrder(int, int64)                               {}
func (Nop) RecordCheckoutFailure(string)                         {}
func (Nop) RecordStockSkipped(int)                               {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}

// Handler returns the HTTP handler serving gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
