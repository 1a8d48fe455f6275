package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func spanAttrs(s tracetest.SpanStub) map[string]string {
	out := make(map[string]string, len(s.Attributes))
	for _, a := range s.Attributes {
		out[string(a.Key)] = a.Value.Emit()
	}
	return out
}

// ============================================================================
// TraceQuery
// ============================================================================

func TestTraceQuery_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "GetProduct", "SELECT * FROM products WHERE id = $1")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.GetProduct", spans[0].Name)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "SELECT * FROM products WHERE id = $1", attrs["db.statement"])
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestTraceQuery_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "InsertOrder", "INSERT INTO orders")
	end(errors.New("deadlock detected"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "deadlock detected", spans[0].Status.Description)
}

func TestTraceQuery_NoRowsIsNotAnError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "GetUser", "SELECT 1")
	end(pgx.ErrNoRows)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

// ============================================================================
// queryTracer
// ============================================================================

func TestQueryTracer_SpanPerStatement(t *testing.T) {
	exporter := setupTestTracer(t)
	tracer := queryTracer{}

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
		SQL: "  UPDATE products SET stock = stock - $1 WHERE id = $2",
	})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.update", spans[0].Name)
}

func TestQueryTracer_EndWithoutStartIsNoop(t *testing.T) {
	exporter := setupTestTracer(t)

	queryTracer{}.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})

	assert.Empty(t, exporter.GetSpans())
}

func TestOperationOf(t *testing.T) {
	assert.Equal(t, "select", operationOf("SELECT 1"))
	assert.Equal(t, "insert", operationOf("\n\tINSERT INTO t VALUES ($1)"))
	assert.Equal(t, "query", operationOf("   "))
}

// ============================================================================
// Slow query logging
// ============================================================================

func TestSlowQueryLogging(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	tests := []struct {
		name      string
		threshold time.Duration
		err       error
		wantLog   bool
		wantText  []string
	}{
		{
			name:      "slow query is logged",
			threshold: time.Nanosecond,
			wantLog:   true,
			wantText:  []string{"SlowSelect", "SELECT * FROM big_table"},
		},
		{
			name:      "slow failing query includes the error",
			threshold: time.Nanosecond,
			err:       errors.New("unique constraint violation"),
			wantLog:   true,
			wantText:  []string{"unique constraint violation"},
		},
		{
			name:      "fast query is not logged",
			threshold: time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetSlowQueryLogging(tt.threshold, slog.New(slog.NewJSONHandler(&buf, nil)))

			_, end := TraceQuery(context.Background(), "SlowSelect", "SELECT * FROM big_table")
			end(tt.err)

			if !tt.wantLog {
				assert.NotContains(t, buf.String(), "slow query detected")
				return
			}
			assert.Contains(t, buf.String(), "slow query detected")
			for _, s := range tt.wantText {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestSlowQueryLogging_DisabledDoesNotPanic(t *testing.T) {
	setupTestTracer(t)
	SetSlowQueryLogging(0, nil)

	_, end := TraceQuery(context.Background(), "AnyOp", "SELECT 1")
	assert.NotPanics(t, func() { end(nil) })
}

func TestSetSlowQueryLogging_Concurrent(t *testing.T) {
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			SetSlowQueryLogging(time.Duration(i)*time.Millisecond, logger)
		}
	}()
	for i := 0; i < 100; i++ {
		slowQuerySettings()
	}
	<-done
}
