package http

import (
	"context"
	"net/http"

	"inventory-api/internal/service"

	"go.opentelemetry.io/otel"
)

type HealthChecker interface {
	Check(ctx context.Context) service.HealthStatus
}

type HealthHandler struct {
	service HealthChecker
}

type HealthResponse struct {
	Status string               `json:"status"`
	Data   service.HealthStatus `json:"data"`
}

var HttpHealthHandlerTracer = otel.Tracer("HttpHealthHandler")

func NewHealthHandler(service HealthChecker) *HealthHandler {
	return &HealthHandler{service: service}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpHealthHandlerTracer.Start(r.Context(), "HttpHealthHandler.Check")
	defer span.End()

	status := h.service.Check(ctx)

	resp := HealthResponse{Status: service.StatusUp, Data: status}
	code := http.StatusOK
	if !status.Healthy() {
		resp.Status = service.StatusDown
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
