package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/erp/accounting/internal/domain/intercompany"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accounting"

// Metrics is the Prometheus instrumentation of the API. It owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	queryDuration     *prometheus.HistogramVec
	journalPostings   *prometheus.CounterVec
	postedAmount      *prometheus.CounterVec
	intercompany      *prometheus.CounterVec
	balanceChecks     *prometheus.CounterVec
	mismatches        *prometheus.GaugeVec
	eventDeliveries   *prometheus.CounterVec
	deliveryDurations *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	m.queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Duration of database statements in seconds.",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation", "table", "success"})
	m.journalPostings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "journal_entries_posted_total",
		Help:      "Journal entries posted, by source document type.",
	}, []string{"source"})
	m.postedAmount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "posted_amount_total",
		Help:      "Sum of posted journal entry totals, by source document type.",
	}, []string{"source"})
	m.intercompany = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intercompany",
		Name:      "events_total",
		Help:      "Intercompany transaction lifecycle events.",
	}, []string{"event"})
	m.balanceChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "snapshot",
		Name:      "balance_checks_total",
		Help:      "Scheduled balance sheet checks, by outcome.",
	}, []string{"balanced"})
	m.mismatches = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "snapshot",
		Name:      "reconciliation_mismatches",
		Help:      "Intercompany mismatches found by the latest reconciliation of a tenant.",
	}, []string{"tenant_id"})
	m.eventDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "deliveries_total",
		Help:      "Domain event deliveries to handlers, by outcome.",
	}, []string{"event_type", "success"})
	m.deliveryDurations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "delivery_duration_seconds",
		Help:      "Time spent in event handlers.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"event_type"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.queryDuration,
		m.journalPostings,
		m.postedAmount,
		m.intercompany,
		m.balanceChecks,
		m.mismatches,
		m.eventDeliveries,
		m.deliveryDurations,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latencies by route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveQuery implements QueryObserver
func (m *Metrics) ObserveQuery(operation, table string, d time.Duration, err error) {
	m.queryDuration.WithLabelValues(operation, table, strconv.FormatBool(err == nil)).Observe(d.Seconds())
}

// ObserveDelivery records one handler invocation of the event bus
func (m *Metrics) ObserveDelivery(eventType string, d time.Duration, err error) {
	m.eventDeliveries.WithLabelValues(eventType, strconv.FormatBool(err == nil)).Inc()
	m.deliveryDurations.WithLabelValues(eventType).Observe(d.Seconds())
}

// RecordBalanceCheck counts one balance sheet check of a company
func (m *Metrics) RecordBalanceCheck(_, _ uuid.UUID, balanced bool) {
	m.balanceChecks.WithLabelValues(strconv.FormatBool(balanced)).Inc()
}

// RecordReconciliation sets the mismatch count of a tenant's latest reconciliation
func (m *Metrics) RecordReconciliation(tenantID uuid.UUID, mismatches int) {
	m.mismatches.WithLabelValues(tenantID.String()).Set(float64(mismatches))
}

// EventTypes implements shared.EventHandler
func (m *Metrics) EventTypes() []string {
	return []string{
		ledger.EventTypeJournalEntryPosted,
		intercompany.EventTypeOrdered,
		intercompany.EventTypeInvoiced,
		intercompany.EventTypeSettled,
		intercompany.EventTypeCancelled,
	}
}

// Handle counts postings and intercompany lifecycle events
func (m *Metrics) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *ledger.JournalEntryPostedEvent:
		source := string(e.SourceType)
		m.journalPostings.WithLabelValues(source).Inc()
		m.postedAmount.WithLabelValues(source).Add(e.Amount.InexactFloat64())
	case *intercompany.TransactionEvent:
		m.intercompany.WithLabelValues(e.EventType()).Inc()
	}
	return nil
}

var _ shared.EventHandler = (*Metrics)(nil)
