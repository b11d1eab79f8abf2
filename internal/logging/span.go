package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one service operation and logs its outcome when it ends.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	err    error
}

// StartSpan derives a child span from ctx. The trace id is the request id
// when one is present, so request and span lines can be joined.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Child spans start from the trace logger so span attributes never repeat.
	logger, ok := ctx.Value(traceLoggerKey).(*slog.Logger)
	if !ok {
		logger = FromContext(ctx)
		traceID := TraceIDFromContext(ctx)
		if traceID == "" {
			traceID = RequestIDFromContext(ctx)
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx = withString(ctx, traceIDKey, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
		ctx = context.WithValue(ctx, traceLoggerKey, logger)
	}

	spanID := uuid.NewString()
	attrs := []any{slog.String("span_id", spanID), slog.String("span_name", name)}
	if parent := SpanIDFromContext(ctx); parent != "" {
		attrs = append(attrs, slog.String("parent_span_id", parent))
	}
	spanLogger := logger.With(attrs...)

	ctx = WithLogger(ctx, spanLogger)
	ctx = withString(ctx, spanIDKey, spanID)

	return ctx, &Span{name: name, logger: spanLogger, start: time.Now()}
}

// Fail marks the span as failed. The last error wins.
func (s *Span) Fail(err error) {
	if s != nil && err != nil {
		s.err = err
	}
}

// End emits the completion entry, at warn level when the span failed.
func (s *Span) End() {
	if s == nil {
		return
	}
	elapsed := slog.Duration("duration", time.Since(s.start))
	if s.err != nil {
		s.logger.Warn("span failed", elapsed, slog.String("error", s.err.Error()))
		return
	}
	s.logger.Info("span completed", elapsed)
}
