package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// spanRecorder installs an in-memory tracer provider as the global one and
// returns the exporter holding finished spans.
func spanRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })
	return exp
}

// captureLogs redirects the default slog logger into a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func TestStartSpan_RecordsNamedSpan(t *testing.T) {
	exp := spanRecorder(t)

	ctx, span := StartSpan(context.Background(), "handle-utterance")
	if CorrelationID(ctx) == "" {
		t.Error("span context carries no trace ID")
	}
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "handle-utterance" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "handle-utterance")
	}
}

func TestCorrelationID(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID without a span = %q, want empty", got)
	}

	spanRecorder(t)
	ctx, span := StartSpan(context.Background(), "resolve-entity")
	defer span.End()

	cid := CorrelationID(ctx)
	if len(cid) != 32 {
		t.Fatalf("correlation ID = %q, want 32 hex characters", cid)
	}
	if strings.Trim(cid, "0123456789abcdef") != "" {
		t.Errorf("correlation ID %q is not lowercase hex", cid)
	}
}

func TestCorrelationID_DistinctPerTrace(t *testing.T) {
	spanRecorder(t)

	seen := make(map[string]struct{}, 50)
	for i := 0; i < 50; i++ {
		ctx, span := StartSpan(context.Background(), "cast-vote")
		cid := CorrelationID(ctx)
		span.End()
		if _, dup := seen[cid]; dup {
			t.Fatalf("trace ID %s issued twice", cid)
		}
		seen[cid] = struct{}{}
	}
}

func TestLogger_AttachesSpanIdentifiers(t *testing.T) {
	spanRecorder(t)
	buf := captureLogs(t)

	ctx, span := StartSpan(context.Background(), "handle-utterance")
	defer span.End()

	Logger(ctx).Info("vote dispatched")

	out := buf.String()
	if !strings.Contains(out, "trace_id=") {
		t.Errorf("log line missing trace_id: %s", out)
	}
	if !strings.Contains(out, "span_id=") {
		t.Errorf("log line missing span_id: %s", out)
	}
}

func TestLogger_PlainWithoutSpan(t *testing.T) {
	buf := captureLogs(t)

	Logger(context.Background()).Info("startup")

	if out := buf.String(); strings.Contains(out, "trace_id") {
		t.Errorf("log line should carry no trace_id: %s", out)
	}
}
