package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
)

const (
	StatusUp       = "UP"
	StatusDown     = "DOWN"
	StatusDisabled = "DISABLED"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	storage Pinger
	cache   Pinger
	timeout time.Duration
}

type HealthStatus struct {
	Storage string `json:"storage"`
	Cache   string `json:"cache"`
}

// Healthy reports whether every enabled dependency is up.
func (s HealthStatus) Healthy() bool {
	return s.Storage == StatusUp && s.Cache != StatusDown
}

var HealthServiceTracer = otel.Tracer("HealthService")

// NewHealthService checks storage and, when cache is non-nil, the cache.
func NewHealthService(storage Pinger, cache Pinger) *HealthService {
	return &HealthService{
		storage: storage,
		cache:   cache,
		timeout: 2 * time.Second,
	}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()

	status := HealthStatus{
		Storage: s.ping(ctx, s.storage),
		Cache:   StatusDisabled,
	}
	if s.cache != nil {
		status.Cache = s.ping(ctx, s.cache)
	}
	return status
}

func (s *HealthService) ping(ctx context.Context, p Pinger) string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return StatusDown
	}
	return StatusUp
}
