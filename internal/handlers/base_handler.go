package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lmsportal/backend/internal/middleware"
	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the error taxonomy to a status code and sends it.
//
// Only unclassified errors are logged and answered with 500.
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		h.respondError(w, http.StatusBadRequest, errorDetail(err, models.ErrValidation))
	case errors.Is(err, models.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrConstraintViolation):
		h.respondError(w, http.StatusConflict, errorDetail(err, models.ErrConstraintViolation))
	case errors.Is(err, models.ErrPermissionDenied):
		h.respondError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, models.ErrInvalidToken), errors.Is(err, models.ErrInvalidCredentials):
		h.respondError(w, http.StatusUnauthorized, "authentication required")
	default:
		h.logger.Error(msg,
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		h.respondError(w, http.StatusInternalServerError, msg)
	}
}

// decodeJSON decodes the request body into v
func (h *BaseHandler) decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", models.ErrValidation)
	}
	return nil
}

// pathID parses the {id} URL parameter
func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id parameter", models.ErrValidation)
	}
	return id, nil
}

// errorDetail strips the sentinel prefix from a wrapped error message
func errorDetail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
