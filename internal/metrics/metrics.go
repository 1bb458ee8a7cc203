package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ghostlounge"

// Ledger entry kinds.
const (
	EntryCharge  = "charge"
	EntryPayment = "payment"
)

// Metrics exposes application-level instruments. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	ledgerEntries        *prometheus.CounterVec
	ledgerAmount         *prometheus.CounterVec
	pointsAwarded        prometheus.Counter
	reservationConflicts prometheus.Counter
	reservationWrites    *prometheus.CounterVec
	calendarFailures     prometheus.Counter
	alertsNotified       prometheus.Counter
}

// New registers every collector on a fresh registry, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ledgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ledger_entries_total", Help: "Posted ledger entries by kind.",
		}, []string{"kind"}),
		ledgerAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ledger_amount_cents_total", Help: "Posted amounts in minor units by kind.",
		}, []string{"kind"}),
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "points_awarded_total", Help: "Loyalty points awarded.",
		}),
		reservationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reservation_conflicts_total", Help: "Reservation writes rejected for overlap.",
		}),
		reservationWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "reservation_writes_total", Help: "Successful reservation writes by action.",
		}, []string{"action"}),
		calendarFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "calendar_publish_failures_total", Help: "Calendar mirror publishes that failed.",
		}),
		alertsNotified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "payment_alerts_notified_total", Help: "Payment alerts surfaced by the sweeper.",
		}),
	}
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.ledgerEntries, m.ledgerAmount, m.pointsAwarded,
		m.reservationConflicts, m.reservationWrites, m.calendarFailures, m.alertsNotified,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordLedgerEntry counts one posted charge or payment.
func (m *Metrics) RecordLedgerEntry(kind string, cents int64) {
	if m == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(kind).Inc()
	if cents > 0 {
		m.ledgerAmount.WithLabelValues(kind).Add(float64(cents))
	}
}

func (m *Metrics) RecordPointsAwarded(points int64) {
	if m == nil || points <= 0 {
		return
	}
	m.pointsAwarded.Add(float64(points))
}

func (m *Metrics) RecordReservationConflict() {
	if m == nil {
		return
	}
	m.reservationConflicts.Inc()
}

func (m *Metrics) RecordReservationWrite(action string) {
	if m == nil {
		return
	}
	m.reservationWrites.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordCalendarFailure() {
	if m == nil {
		return
	}
	m.calendarFailures.Inc()
}

func (m *Metrics) RecordAlertNotified() {
	if m == nil {
		return
	}
	m.alertsNotified.Inc()
}

// Collectors for inspection, e.g. with prometheus/testutil.

func (m *Metrics) LedgerEntries(kind string) prometheus.Collector {
	return m.ledgerEntries.WithLabelValues(kind)
}

func (m *Metrics) PointsAwarded() prometheus.Collector        { return m.pointsAwarded }
func (m *Metrics) ReservationConflicts() prometheus.Collector { return m.reservationConflicts }
func (m *Metrics) CalendarFailures() prometheus.Collector     { return m.calendarFailures }
func (m *Metrics) AlertsNotified() prometheus.Collector       { return m.alertsNotified }
