package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"inventory-api/internal/logger"
	"inventory-api/internal/model"
	"inventory-api/internal/utils"

	"go.opentelemetry.io/otel"
)

const maxBodyBytes = 1 << 20

// ProductService is what the product handlers need from the service layer.
type ProductService interface {
	GetAll(ctx context.Context) ([]model.Product, error)
	GetByID(ctx context.Context, id int) (model.Product, error)
	GetByCategory(ctx context.Context, name string) ([]model.Product, error)
	GetFeatured(ctx context.Context) ([]model.Product, error)
	Create(ctx context.Context, body []byte) (model.Product, error)
	Update(ctx context.Context, id int, body []byte) (model.Product, error)
	Delete(ctx context.Context, id int) (model.Product, error)
}

type ProductHandler struct {
	service ProductService
}

var HttpProductHandlerTracer = otel.Tracer("HttpProductHandler")

func NewProductHandler(service ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetAll")
	defer span.End()

	products, err := h.service.GetAll(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetFeatured(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetFeatured")
	defer span.End()

	products, err := h.service.GetFeatured(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetByCategory")
	defer span.End()

	products, err := h.service.GetByCategory(ctx, r.PathValue("name"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetByID")
	defer span.End()

	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	product, err := h.service.GetByID(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Create")
	defer span.End()

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidData)
		return
	}

	created, err := h.service.Create(ctx, body)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Update")
	defer span.End()

	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidData)
		return
	}

	updated, err := h.service.Update(ctx, id, body)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Delete")
	defer span.End()

	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	removed, err := h.service.Delete(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// Debug returns the full collection and logs it.
func (h *ProductHandler) Debug(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Debug")
	defer span.End()

	products, err := h.service.GetAll(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	logger.Info(ctx, "Current product state",
		slog.Int("product.count", len(products)),
		slog.String("product.state", utils.ToJSONString(products)),
	)
	writeJSON(w, http.StatusOK, products)
}

// pathID accepts only positive decimal ids.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

