package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-api/internal/client"
	"inventory-api/internal/config"
	"inventory-api/internal/logger"
	"inventory-api/internal/model"
	"inventory-api/internal/tracer"
	"inventory-api/internal/version"

	"go.opentelemetry.io/otel"
)

var cycleTracer = otel.Tracer("HttpTrafficClient")

func main() {
	globalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Instance()
	logger.SetLevel(cfg.SlogLevel())
	logger.SetRemote(cfg.RemoteLogHttpURI, cfg.AppName+"-http-client")

	logger.Info(globalCtx, cfg.AppName+"-http-client",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	shutdownTracer, err := tracer.Setup(globalCtx, cfg)
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
		_ = logger.Flush(ctx)
	}()

	api := client.NewInventoryClient(cfg.ExternalHTTP, 3*time.Second)
	logger.Info(globalCtx, "HTTP client started",
		slog.String("target", cfg.ExternalHTTP),
		slog.Int64("max_sleep_ms", cfg.ClientMaxSleepMs),
	)

	for {
		runCycle(globalCtx, api)

		select {
		case <-globalCtx.Done():
			logger.Info(context.Background(), "Shutting down HTTP client")
			return
		case <-time.After(jitter(cfg.ClientMaxSleepMs)):
		}
	}
}

// runCycle exercises every endpoint once, creating and then removing a
// throwaway product.
func runCycle(parent context.Context, api *client.InventoryClient) {
	ctx, span := cycleTracer.Start(parent, "HttpTrafficClient.Cycle")
	defer span.End()

	if resp, err := api.List(ctx); report(ctx, "list", resp, err) {
		logger.Info(ctx, "Listed products", slog.Int("count", len(resp.Data)))
	}
	if resp, err := api.Featured(ctx); report(ctx, "featured", resp, err) {
		logger.Info(ctx, "Listed featured products", slog.Int("count", len(resp.Data)))
	}
	if resp, err := api.ByCategory(ctx, "Electrónica"); report(ctx, "category", resp, err) {
		logger.Info(ctx, "Listed products by category", slog.Int("count", len(resp.Data)))
	}

	name := "Load Test Item"
	price := float64(rand.IntN(2000))
	available := true
	categories := []model.Category{{Name: "Pruebas", Stock: rand.IntN(100)}}
	created, err := api.Create(ctx, client.ProductInput{
		Name:       &name,
		Price:      &price,
		Available:  &available,
		Categories: &categories,
	})
	if !report(ctx, "create", created, err) {
		return
	}
	id := created.Data.ID

	newPrice := price + 1
	if resp, err := api.Update(ctx, id, client.ProductInput{Price: &newPrice}); report(ctx, "update", resp, err) {
		logger.Info(ctx, "Updated product", slog.Int("id", id), slog.Float64("price", resp.Data.Price))
	}
	if resp, err := api.Get(ctx, id); report(ctx, "get", resp, err) {
		logger.Info(ctx, "Fetched product", slog.Int("id", resp.Data.ID))
	}
	if resp, err := api.Delete(ctx, id); report(ctx, "delete", resp, err) {
		logger.Info(ctx, "Deleted product", slog.Int("id", resp.Data.ID))
	}
}

// report logs failed calls and returns true for a 2xx response.
func report[T any](ctx context.Context, op string, resp *client.Response[T], err error) bool {
	if err != nil {
		logger.Error(ctx, "Request failed", slog.String("op", op), slog.String("error", err.Error()))
		return false
	}
	if !resp.IsSuccess() {
		logger.Warn(ctx, "Unexpected status",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(resp.RawBody)),
		)
		return false
	}
	return true
}

func jitter(maxMs int64) time.Duration {
	if maxMs <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(maxMs)+1) * time.Millisecond
}
