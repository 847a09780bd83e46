package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"inventory-api/internal/utils"

	"go.opentelemetry.io/otel/trace"
)

var (
	instance *slog.Logger
	once     sync.Once
	level    = new(slog.LevelVar)
)

func Instance() *slog.Logger {
	once.Do(func() {
		instance = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}))
	})

	return instance
}

// SetLevel changes the minimum level of the process logger.
func SetLevel(l slog.Level) {
	level.Set(l)
}

func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	enriched := enrich(ctx, attrs...)
	Instance().LogAttrs(ctx, slog.LevelDebug, msg, enriched...)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	enriched := enrich(ctx, attrs...)
	Instance().LogAttrs(ctx, slog.LevelInfo, msg, enriched...)
	ship("info", msg, enriched)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	enriched := enrich(ctx, attrs...)
	Instance().LogAttrs(ctx, slog.LevelWarn, msg, enriched...)
	ship("warn", msg, enriched)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	enriched := enrich(ctx, attrs...)
	Instance().LogAttrs(ctx, slog.LevelError, msg, enriched...)
	ship("error", msg, enriched)
}

func enrich(ctx context.Context, attrs ...slog.Attr) []slog.Attr {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
			slog.String("hostname", utils.GetHost()),
		)
	}

	return attrs
}
