package grpc

import (
	"context"
	"log/slog"
	"time"

	"inventory-api/internal/logger"
	middleware_grpc "inventory-api/internal/middleware/grpc"
	"inventory-api/internal/service"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type HealthChecker interface {
	Check(ctx context.Context) service.HealthStatus
}

// HealthReporter mirrors HealthService results into the standard gRPC
// health service, both for the server as a whole ("") and under a named
// service.
type HealthReporter struct {
	server   *health.Server
	checker  HealthChecker
	service  string
	interval time.Duration
}

var GrpcHealthReporterTracer = otel.Tracer("GrpcHealthReporter")

func NewHealthReporter(checker HealthChecker, serviceName string, interval time.Duration) *HealthReporter {
	return &HealthReporter{
		server:   health.NewServer(),
		checker:  checker,
		service:  serviceName,
		interval: interval,
	}
}

func (h *HealthReporter) Server() *health.Server {
	return h.server
}

// Refresh runs one check and publishes its result.
func (h *HealthReporter) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, span := GrpcHealthReporterTracer.Start(ctx, "GrpcHealthReporter.Refresh")
	defer span.End()

	st := h.checker.Check(ctx)
	serving := healthpb.HealthCheckResponse_SERVING
	if !st.Healthy() {
		serving = healthpb.HealthCheckResponse_NOT_SERVING
		logger.Warn(ctx, "Dependency check failed",
			slog.String("storage", st.Storage),
			slog.String("cache", st.Cache),
		)
	}
	h.server.SetServingStatus("", serving)
	h.server.SetServingStatus(h.service, serving)
	return serving
}

// Run refreshes the status every interval until ctx is done, then marks
// every service NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) {
	h.Refresh(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

// NewServer builds a gRPC server exposing the health service and reflection.
func NewServer(reporter *HealthReporter) *grpc.Server {
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(middleware_grpc.UnaryTracingInterceptor()),
	)
	healthpb.RegisterHealthServer(srv, reporter.Server())
	reflection.Register(srv)
	return srv
}
