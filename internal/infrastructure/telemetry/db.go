package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey string

const queryStartKey contextKey = "query_start"

// QueryObserver receives the duration of every statement
type QueryObserver interface {
	ObserveQuery(operation, table string, d time.Duration, err error)
}

// DBInstrumentation traces GORM statements and reports slow ones
type DBInstrumentation struct {
	cfg      config.TelemetryConfig
	dbSystem string
	observer QueryObserver
	logger   *zap.Logger
}

// NewDBInstrumentation creates the GORM instrumentation. observer may be nil.
func NewDBInstrumentation(cfg config.TelemetryConfig, dbSystem string, observer QueryObserver, logger *zap.Logger) *DBInstrumentation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBInstrumentation{cfg: cfg, dbSystem: dbSystem, observer: observer, logger: logger}
}

// Register installs the otelgorm plugin when DB tracing is enabled and the timing callbacks always
func (d *DBInstrumentation) Register(db *gorm.DB) error {
	if d.cfg.Enabled && d.cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(d.dbSystem)}
		if !d.cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey, time.Now())
		}
	}
	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}{
		{"create", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register("timing:before_"+n, b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("timing:after_"+n, a)
		}},
		{"query", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register("timing:before_"+n, b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("timing:after_"+n, a)
		}},
		{"update", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register("timing:before_"+n, b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("timing:after_"+n, a)
		}},
		{"delete", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register("timing:before_"+n, b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("timing:after_"+n, a)
		}},
		{"row", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Row().Before("gorm:row").Register("timing:before_"+n, b); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register("timing:after_"+n, a)
		}},
		{"raw", func(n string, b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register("timing:before_"+n, b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("timing:after_"+n, a)
		}},
	}
	for _, step := range steps {
		if err := step.register(step.op, before, d.after(step.op)); err != nil {
			return err
		}
	}

	d.logger.Info("Database instrumentation registered",
		zap.Bool("tracing", d.cfg.Enabled && d.cfg.DBTraceEnabled),
		zap.Duration("slow_query_threshold", d.cfg.DBSlowQueryThresh),
		zap.String("db_system", d.dbSystem))
	return nil
}

func (d *DBInstrumentation) after(op string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(queryStartKey).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		err := tx.Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = nil
		}
		if d.observer != nil {
			d.observer.ObserveQuery(op, tx.Statement.Table, elapsed, err)
		}

		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			if tx.Statement.Table != "" {
				span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
			}
			span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				span.RecordError(err)
			}
		}

		if d.cfg.DBSlowQueryThresh > 0 && elapsed > d.cfg.DBSlowQueryThresh {
			if span.IsRecording() {
				span.SetAttributes(attribute.Bool("db.slow_query", true))
				span.AddEvent("slow_query_warning", trace.WithAttributes(
					attribute.Int64("duration_ms", elapsed.Milliseconds()),
					attribute.Int64("threshold_ms", d.cfg.DBSlowQueryThresh.Milliseconds()),
				))
			}
			fields := []zap.Field{
				zap.String("operation", op),
				zap.String("table", tx.Statement.Table),
				zap.Duration("elapsed", elapsed),
				zap.Int64("rows", tx.Statement.RowsAffected),
			}
			if d.cfg.DBLogFullSQL {
				fields = append(fields, zap.String("sql", tx.Statement.SQL.String()))
			}
			if id := TraceID(ctx); id != "" {
				fields = append(fields, zap.String("trace_id", id))
			}
			d.logger.Warn("Slow query", fields...)
		}
	}
}
