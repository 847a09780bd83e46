package tracer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"inventory-api/internal/config"
	"inventory-api/internal/logger"
	"inventory-api/internal/version"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// ShutdownFunc flushes and stops whatever Setup started.
type ShutdownFunc func(ctx context.Context) error

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}()

// Setup installs the global propagator and, unless the exporter is "none",
// a batching tracer provider. The Pyroscope agent starts only when a
// profiling address is configured.
func Setup(ctx context.Context, cfg *config.Config) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var shutdowns []ShutdownFunc

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Failed to create trace exporter", slog.String("error", err.Error()))
		return nil, err
	}
	if exp != nil {
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(cfg.AppName),
				semconv.ServiceVersionKey.String(version.Version),
				attribute.String("env", cfg.Env),
			),
		)
		if err != nil {
			logger.Error(ctx, "Failed to create resource", slog.String("error", err.Error()))
			return nil, err
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
		shutdowns = append(shutdowns, tp.Shutdown)

		logger.Info(ctx, "OpenTelemetry tracer initialized", slog.String("exporter", cfg.TraceExporter))
	}

	if cfg.RemoteProfilingHttpURI != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.AppName,
			ServerAddress:   cfg.RemoteProfilingHttpURI,
			Logger:          pyroLogrus,
			Tags:            map[string]string{"env": cfg.Env, "version": version.Version},
		})
		if err != nil {
			logger.Error(ctx, "Pyroscope failed to start", slog.String("error", err.Error()))
		} else {
			logger.Info(ctx, "Pyroscope started successfully")
			shutdowns = append(shutdowns, func(context.Context) error { return profiler.Stop() })
		}
	}

	return func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}, nil
}

func newExporter(ctx context.Context, cfg *config.Config) (sdktrace.SpanExporter, error) {
	switch cfg.TraceExporter {
	case config.ExporterOTLP:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.RemoteTraceRpcURI),
			otlptracegrpc.WithCompressor("gzip"),
		)
	case config.ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	case config.ExporterNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", cfg.TraceExporter)
	}
}
