package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"inventory-api/internal/logger"
	"inventory-api/internal/repository"
	"inventory-api/internal/validator"
)

const (
	msgNotFound       = "product not found"
	msgNoFeatured     = "no featured products available"
	msgInvalidData    = "invalid data"
	msgInternalServer = "internal server error"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps a service error onto its status code and body.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *validator.ValidationError
	var serr *repository.StorageError

	switch {
	case errors.As(err, &verr):
		logger.Warn(ctx, "Rejected product payload", slog.String("error", verr.Error()))
		writeError(w, http.StatusBadRequest, msgInvalidData)
	case errors.Is(err, repository.ErrNoFeatured):
		writeError(w, http.StatusNotFound, msgNoFeatured)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.As(err, &serr):
		logger.Error(ctx, "Storage operation failed",
			slog.String("op", serr.Op),
			slog.String("error", serr.Err.Error()),
		)
		writeError(w, http.StatusInternalServerError, msgInternalServer)
	default:
		logger.Error(ctx, "Unexpected error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, msgInternalServer)
	}
}
