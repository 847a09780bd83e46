package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"inventory-api/internal/config"
	"inventory-api/internal/logger"
	middleware_grpc "inventory-api/internal/middleware/grpc"
	"inventory-api/internal/version"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Probes the gRPC health service once. Exit code 0 means SERVING.
func main() {
	ctx := context.Background()
	cfg := config.Instance()
	logger.SetLevel(cfg.SlogLevel())

	logger.Info(ctx, cfg.AppName+"-grpc-client",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	service := ""
	if len(os.Args) > 1 {
		service = os.Args[1]
	}

	os.Exit(probe(ctx, cfg.ExternalGRPC, service))
}

func probe(ctx context.Context, target, service string) int {
	conn, err := grpc.NewClient(
		target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(middleware_grpc.UnaryClientTracingInterceptor()),
	)
	if err != nil {
		logger.Error(ctx, "Failed to create gRPC client", slog.String("target", target), slog.String("error", err.Error()))
		return 1
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		logger.Error(ctx, "Health check failed", slog.String("target", target), slog.String("error", err.Error()))
		return 1
	}

	logger.Info(ctx, "Health check", slog.String("target", target), slog.String("status", resp.GetStatus().String()))
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return 1
	}
	return 0
}
