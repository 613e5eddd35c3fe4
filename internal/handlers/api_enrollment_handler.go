package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
)

// EnrollmentStore is the interface that wraps direct Enrollment table access used by the REST API
type EnrollmentStore interface {
	// Method GetAll retrieves all enrollments ordered by ID.
	GetAll(ctx context.Context) ([]models.Enrollment, error)
	// Method GetByID retrieves an enrollment by ID.
	//
	// If enrollment with such ID does not exist, models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Enrollment, error)
	// Method Create inserts a new enrollment and sets its ID.
	//
	// A duplicate (user, course) pair returns models.ErrConstraintViolation,
	// a missing user or course returns models.ErrNotFound.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	// Method Update changes the user and course of an enrollment.
	//
	// Errors are reported like in Create; a missing enrollment returns models.ErrNotFound.
	Update(ctx context.Context, enrollment *models.Enrollment) error
	// Method Delete removes an enrollment.
	//
	// If enrollment with such ID does not exist, models.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// APIEnrollmentHandler handles the enrollment REST resource
type APIEnrollmentHandler struct {
	BaseHandler
	store     EnrollmentStore
	validator Validator
}

// NewAPIEnrollmentHandler creates a new enrollment REST handler
func NewAPIEnrollmentHandler(store EnrollmentStore, validator Validator, logger *zap.Logger) *APIEnrollmentHandler {
	return &APIEnrollmentHandler{
		BaseHandler: BaseHandler{logger: logger},
		store:       store,
		validator:   validator,
	}
}

// RegisterRoutes registers enrollment REST routes
func (h *APIEnrollmentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/enrollments", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Retrieve)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}", h.PartialUpdate)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /api/enrollments
// @Summary List enrollments
// @Tags enrollments
// @Produce json
// @Success 200 {array} models.EnrollmentResource
// @Failure 500 {object} map[string]string
// @Router /enrollments [get]
func (h *APIEnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.store.GetAll(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get enrollments")
		return
	}

	resources := make([]models.EnrollmentResource, 0, len(enrollments))
	for i := range enrollments {
		resources = append(resources, models.NewEnrollmentResource(&enrollments[i]))
	}
	h.respondJSON(w, http.StatusOK, resources)
}

// Retrieve handles GET /api/enrollments/{id}
// @Summary Get enrollment by ID
// @Tags enrollments
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 200 {object} models.EnrollmentResource
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /enrollments/{id} [get]
func (h *APIEnrollmentHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err, "invalid id")
		return
	}

	enrollment, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get enrollment")
		return
	}

	h.respondJSON(w, http.StatusOK, models.NewEnrollmentResource(enrollment))
}

// Create handles POST /api/enrollments
// @Summary Create enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Param enrollment body models.EnrollmentResource true "Enrollment"
// @Success 201 {object} models.EnrollmentResource
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /enrollments [post]
func (h *APIEnrollmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var resource models.EnrollmentResource
	if err := h.decodeJSON(r, &resource); err != nil {
		h.respondServiceError(w, r, err, "invalid request body")
		return
	}
	if err := h.validator.Struct(resource); err != nil {
		h.respondServiceError(w, r, err, "invalid enrollment")
		return
	}

	enrollment := &models.Enrollment{UserID: resource.User, CourseID: resource.Course}
	if err := h.store.Create(r.Context(), enrollment); err != nil {
		h.respondWriteError(w, r, err, "failed to create enrollment")
		return
	}

	h.respondJSON(w, http.StatusCreated, models.NewEnrollmentResource(enrollment))
}

// Update handles PUT /api/enrollments/{id}
// @Summary Replace enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param enrollment body models.EnrollmentResource true "Enrollment"
// @Success 200 {object} models.EnrollmentResource
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /enrollments/{id} [put]
func (h *APIEnrollmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	enrollment, ok := h.load(w, r)
	if !ok {
		return
	}

	var resource models.EnrollmentResource
	if err := h.decodeJSON(r, &resource); err != nil {
		h.respondServiceError(w, r, err, "invalid request body")
		return
	}
	if err := h.validator.Struct(resource); err != nil {
		h.respondServiceError(w, r, err, "invalid enrollment")
		return
	}

	enrollment.UserID = resource.User
	enrollment.CourseID = resource.Course
	h.save(w, r, enrollment)
}

// PartialUpdate handles PATCH /api/enrollments/{id}
// @Summary Update enrollment fields
// @Tags enrollments
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param enrollment body models.EnrollmentPatch true "Fields to change"
// @Success 200 {object} models.EnrollmentResource
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /enrollments/{id} [patch]
func (h *APIEnrollmentHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	enrollment, ok := h.load(w, r)
	if !ok {
		return
	}

	var patch models.EnrollmentPatch
	if err := h.decodeJSON(r, &patch); err != nil {
		h.respondServiceError(w, r, err, "invalid request body")
		return
	}
	if err := h.validator.Struct(patch); err != nil {
		h.respondServiceError(w, r, err, "invalid enrollment")
		return
	}

	if patch.User != nil {
		enrollment.UserID = *patch.User
	}
	if patch.Course != nil {
		enrollment.CourseID = *patch.Course
	}
	h.save(w, r, enrollment)
}

// Delete handles DELETE /api/enrollments/{id}
// @Summary Delete enrollment
// @Tags enrollments
// @Param id path int true "Enrollment ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /enrollments/{id} [delete]
func (h *APIEnrollmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err, "invalid id")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, "failed to delete enrollment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// load fetches the enrollment addressed by the {id} parameter, responding on failure
func (h *APIEnrollmentHandler) load(w http.ResponseWriter, r *http.Request) (*models.Enrollment, bool) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err, "invalid id")
		return nil, false
	}

	enrollment, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get enrollment")
		return nil, false
	}
	return enrollment, true
}

func (h *APIEnrollmentHandler) save(w http.ResponseWriter, r *http.Request, enrollment *models.Enrollment) {
	if err := h.store.Update(r.Context(), enrollment); err != nil {
		h.respondWriteError(w, r, err, "failed to update enrollment")
		return
	}
	h.respondJSON(w, http.StatusOK, models.NewEnrollmentResource(enrollment))
}

// respondWriteError reports a missing referenced user or course as a bad request
func (h *APIEnrollmentHandler) respondWriteError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, models.ErrNotFound) {
		h.respondError(w, http.StatusBadRequest, "user or course does not exist")
		return
	}
	h.respondServiceError(w, r, err, msg)
}
