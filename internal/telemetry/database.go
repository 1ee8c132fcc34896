package telemetry

import (
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	dbSystemKey     = "db.system"
	dbCollectionKey = "db.collection.name"
	dbOperationKey  = "db.operation"
	dbStatementKey  = "db.statement"

	spanKey      = "otel:span"
	startTimeKey = "otel:startTime"
	maxStatement = 500
)

// GORMTracingPlugin returns a GORM plugin that opens a span per statement.
// system is the db.system attribute, e.g. "postgresql".
func GORMTracingPlugin(system string) gorm.Plugin {
	return &tracingPlugin{
		tracer: otel.Tracer("gorm"),
		system: system,
	}
}

type tracingPlugin struct {
	tracer trace.Tracer
	system string
}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []struct {
		name string
		err  error
	}{
		{"before_query", cb.Query().Before("gorm:query").Register("telemetry:before_query", p.starter("SELECT"))},
		{"before_create", cb.Create().Before("gorm:create").Register("telemetry:before_create", p.starter("INSERT"))},
		{"before_update", cb.Update().Before("gorm:update").Register("telemetry:before_update", p.starter("UPDATE"))},
		{"before_delete", cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", p.starter("DELETE"))},
		{"before_raw", cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", p.starter("RAW"))},
		{"after_query", cb.Query().After("gorm:query").Register("telemetry:after_query", p.finish)},
		{"after_create", cb.Create().After("gorm:create").Register("telemetry:after_create", p.finish)},
		{"after_update", cb.Update().After("gorm:update").Register("telemetry:after_update", p.finish)},
		{"after_delete", cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.finish)},
		{"after_raw", cb.Raw().After("gorm:raw").Register("telemetry:after_raw", p.finish)},
	}
	for _, r := range registrations {
		if r.err != nil {
			return fmt.Errorf("failed to register %s callback: %w", r.name, r.err)
		}
	}
	return nil
}

func (p *tracingPlugin) starter(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}

		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		_, span := p.tracer.Start(ctx, "db."+strings.ToLower(operation),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String(dbSystemKey, p.system),
				attribute.String(dbCollectionKey, table),
				attribute.String(dbOperationKey, operation),
			),
		)

		db.InstanceSet(spanKey, span)
		db.InstanceSet(startTimeKey, time.Now())
	}
}

func (p *tracingPlugin) finish(db *gorm.DB) {
	spanRaw, exists := db.InstanceGet(spanKey)
	if !exists {
		return
	}
	span, ok := spanRaw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if startRaw, exists := db.InstanceGet(startTimeKey); exists {
		if start, ok := startRaw.(time.Time); ok {
			span.SetAttributes(attribute.Int64("db.duration_ms", time.Since(start).Milliseconds()))
		}
	}

	if sql := db.Statement.SQL.String(); sql != "" {
		if len(sql) > maxStatement {
			sql = sql[:maxStatement] + "... (truncated)"
		}
		span.SetAttributes(attribute.String(dbStatementKey, sql))
	}

	if db.RowsAffected > 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}

	// Not-found is an answer, not a failure
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}
