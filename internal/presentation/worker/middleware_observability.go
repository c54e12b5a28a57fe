package workerpresentation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

// WithTaskContext injects a task-scoped logger for background executions.
// Fields: task_id (generated when attrs has none), trace_id/span_id when valid,
// then the remaining low-cardinality attrs (e.g. "task", "order_id").
func WithTaskContext(
	ctx context.Context,
	base observability.Logger,
	tel observability.Observability,
	sc trace.SpanContext,
	attrs map[string]string,
) (context.Context, observability.Logger) {
	if base == nil {
		base = observability.OrNop(tel).Logger()
	}

	taskID := attrs["task_id"]
	if taskID == "" {
		taskID = uuid.NewString()
	}
	fields := make([]observability.Field, 0, len(attrs)+3)
	fields = append(fields, observability.F("task_id", taskID))

	if sc.TraceID().IsValid() {
		fields = append(fields, observability.F("trace_id", sc.TraceID().String()))
	}
	if sc.SpanID().IsValid() {
		fields = append(fields, observability.F("span_id", sc.SpanID().String()))
	}

	for k, v := range attrs {
		if k == "task_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	logger := base.With(fields...)
	return logctx.With(ctx, logger), logger
}
