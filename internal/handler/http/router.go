package http

import (
	"net/http"

	middleware "inventory-api/internal/middleware/http"
)

const rootMessage = "Inventory API is up and running!"

// NewRouter registers every route and wraps the mux with request tracing.
func NewRouter(products *ProductHandler, health *HealthHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(rootMessage))
	})
	mux.HandleFunc("GET /healthz", health.Check)

	mux.HandleFunc("GET /products", products.GetAll)
	mux.HandleFunc("GET /products/featured", products.GetFeatured)
	mux.HandleFunc("GET /products/category/{name}", products.GetByCategory)
	mux.HandleFunc("GET /products/{id}", products.GetByID)
	mux.HandleFunc("POST /products", products.Create)
	mux.HandleFunc("PUT /products/{id}", products.Update)
	mux.HandleFunc("DELETE /products/{id}", products.Delete)

	mux.HandleFunc("GET /debug/products", products.Debug)

	return middleware.TraceMiddleware(mux)
}
