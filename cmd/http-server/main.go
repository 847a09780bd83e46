package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"inventory-api/internal/app"
	"inventory-api/internal/config"
	grpcHandler "inventory-api/internal/handler/grpc"
	handler "inventory-api/internal/handler/http"
	"inventory-api/internal/logger"
	"inventory-api/internal/service"
	"inventory-api/internal/tracer"
	"inventory-api/internal/version"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

func main() {
	globalCtx := context.Background()
	cfg := config.Instance()
	logger.SetLevel(cfg.SlogLevel())
	logger.SetRemote(cfg.RemoteLogHttpURI, cfg.AppName)

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	shutdownTracer, err := tracer.Setup(globalCtx, cfg)
	if err != nil {
		os.Exit(1)
	}

	storage, err := app.OpenStorage(globalCtx, cfg)
	if err != nil {
		logger.Error(globalCtx, "Failed to open storage",
			slog.String("driver", cfg.StorageDriver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Wiring
	productService := service.NewProductService(storage.Products)
	productHandler := handler.NewProductHandler(productService)

	var cachePinger service.Pinger
	if storage.Cache != nil {
		cachePinger = storage.Cache
	}
	healthService := service.NewHealthService(storage.Products, cachePinger)
	healthHandler := handler.NewHealthHandler(healthService)

	// HTTP server
	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler.NewRouter(productHandler, healthHandler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		logger.Info(globalCtx, "HTTP server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(globalCtx, "HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// gRPC health server
	reportCtx, stopReporter := context.WithCancel(globalCtx)
	reporter := grpcHandler.NewHealthReporter(healthService, cfg.AppName, 10*time.Second)
	go reporter.Run(reportCtx)

	grpcServer := grpcHandler.NewServer(reporter)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error(globalCtx, "Failed to listen", slog.String("port", cfg.GRPCPort), slog.String("error", err.Error()))
		os.Exit(1)
	}
	go func() {
		logger.Info(globalCtx, "gRPC health server running", slog.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error(globalCtx, "gRPC server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		globalCtx,
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.Info(ctx, "Shutting down HTTP server")
				return server.Shutdown(ctx)
			},
			"grpc-server": func(ctx context.Context) error {
				logger.Info(ctx, "Shutting down gRPC server")
				stopReporter()
				grpcServer.GracefulStop()
				return nil
			},
		},
	)

	exitCode := <-wait

	closeCtx, cancel := context.WithTimeout(globalCtx, 5*time.Second)
	if err := storage.Close(); err != nil {
		logger.Error(closeCtx, "Failed to close storage", slog.String("error", err.Error()))
	}
	if err := shutdownTracer(closeCtx); err != nil {
		logger.Error(closeCtx, "Failed to shut down tracer", slog.String("error", err.Error()))
	}
	_ = logger.Flush(closeCtx)

	logger.Info(closeCtx, "Application exited", slog.Int("code", exitCode))
	cancel()
	os.Exit(exitCode)
}
