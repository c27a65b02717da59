package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/accounting/internal/domain/intercompany"
	"github.com/erp/accounting/internal/domain/ledger"
	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestSetup_DisabledIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestStartSpan(t *testing.T) {
	recorder := installRecorder(t)
	tenantID, companyID := uuid.New(), uuid.New()

	ctx, span := StartSpan(context.Background(), "intercompany", "settle",
		WithTenant(tenantID, companyID),
		WithAttribute("amount", decimal.NewFromInt(200)),
		WithAttribute("attempt", 2))
	assert.NotEmpty(t, TraceID(ctx))
	End(span, errors.New("exceeds outstanding"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "intercompany.settle", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)

	attrs := map[string]string{}
	for _, kv := range got.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, tenantID.String(), attrs["tenant.id"])
	assert.Equal(t, companyID.String(), attrs["company.id"])
	assert.Equal(t, "200", attrs["amount"])
	assert.Equal(t, "2", attrs["attempt"])

	assert.Empty(t, TraceID(context.Background()))
}

type queryRecorder struct {
	ops []string
}

func (q *queryRecorder) ObserveQuery(operation, table string, _ time.Duration, _ error) {
	q.ops = append(q.ops, operation+":"+table)
}

func TestDBInstrumentation_ObservesStatements(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	observer := &queryRecorder{}
	inst := NewDBInstrumentation(config.TelemetryConfig{DBSlowQueryThresh: time.Nanosecond}, "sqlite", observer, zap.NewNop())
	require.NoError(t, inst.Register(db))

	type widget struct {
		ID   uint
		Name string
	}
	require.NoError(t, db.AutoMigrate(&widget{}))
	require.NoError(t, db.Create(&widget{Name: "a"}).Error)
	var found []widget
	require.NoError(t, db.Find(&found).Error)

	assert.Contains(t, observer.ops, "create:widgets")
	assert.Contains(t, observer.ops, "query:widgets")
}

func TestMetrics_HTTPMiddleware(t *testing.T) {
	m := NewMetrics()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/companies/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/companies/"+uuid.NewString(), nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/companies/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "accounting_http_requests_total"))
}

func TestMetrics_DomainEvents(t *testing.T) {
	m := NewMetrics()
	tenantID := uuid.New()

	entry, err := ledger.NewJournalEntry(tenantID, uuid.New(), time.Now(), "INV-1", ledger.SourceInvoice, nil)
	require.NoError(t, err)
	require.NoError(t, m.Handle(context.Background(), ledger.NewJournalEntryPostedEvent(entry)))
	require.NoError(t, m.Handle(context.Background(), ledger.NewJournalEntryPostedEvent(entry)))

	tx, err := intercompany.NewTransaction(tenantID, uuid.New(), uuid.New(), "IC-2026-00001", time.Now())
	require.NoError(t, err)
	require.NoError(t, m.Handle(context.Background(), intercompany.NewTransactionEvent(intercompany.EventTypeSettled, tx, decimal.NewFromInt(10))))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.journalPostings.WithLabelValues("invoice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intercompany.WithLabelValues(intercompany.EventTypeSettled)))

	m.RecordBalanceCheck(tenantID, uuid.New(), true)
	m.RecordBalanceCheck(tenantID, uuid.New(), false)
	m.RecordReconciliation(tenantID, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.balanceChecks.WithLabelValues("false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mismatches.WithLabelValues(tenantID.String())))

	m.ObserveDelivery(ledger.EventTypeJournalEntryPosted, time.Millisecond, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventDeliveries.WithLabelValues(ledger.EventTypeJournalEntryPosted, "false")))
}
