package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
)

// CourseStore is the interface that wraps direct Course table access used by the REST API
type CourseStore interface {
	// Method GetAll retrieves all courses ordered by ID.
	GetAll(ctx context.Context) ([]models.Course, error)
	// Method GetByID retrieves a course by ID.
	//
	// If course with such ID does not exist, models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// Method Create inserts a new course and sets its ID.
	Create(ctx context.Context, course *models.Course) error
	// Method Update replaces every field of an existing course.
	//
	// If course with such ID does not exist, models.ErrNotFound will be returned.
	Update(ctx context.Context, course *models.Course) error
	// Method Delete removes a course together with its enrollments.
	//
	// If course with such ID does not exist, models.ErrNotFound will be returned.
	Delete(ctx context.Context, id int) error
}

// Validator validates tagged request structs
type Validator interface {
	// Method Struct returns models.ErrValidation describing every failed rule, or nil.
	Struct(s any) error
}

// APICourseHandler handles the course REST resource
type APICourseHandler struct {
	BaseHandler
	store     CourseStore
	validator Validator
}

// NewAPICourseHandler creates a new course REST handler
func NewAPICourseHandler(store CourseStore, validator Validator, logger *zap.Logger) *APICourseHandler {
	return &APICourseHandler{
		BaseHandler: BaseHandler{logger: logger},
		store:       store,
		validator:   validator,
	}
}

// RegisterRoutes registers course REST routes
func (h *APICourseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Retrieve)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}", h.PartialUpdate)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /api/courses
// @Summary List courses
// @Description Get all courses ordered by id
// @Tags courses
// @Produce json
// @Success 200 {array} models.CourseResource
// @Failure 500 {object} map[string]string
// @Router /courses [get]
func (h *APICourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.GetAll(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get courses")
		return
	}

	resources := make([]models.CourseResource, 0, len(courses))
	for i := range courses {
		resources = append(resources, models.NewCourseResource(&courses[i]))
	}
	h.respondJSON(w, http.StatusOK, resources)
}

// Retrieve handles GET /api/courses/{id}
// @Summary Get course by ID
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseResource
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /courses/{id} [get]
func (h *APICourseHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err, "invalid id")
		return
	}

	course, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get course")
		return
	}

	h.respondJSON(w, http.StatusOK, models.NewCourseResource(course))
}

// Create handles POST /api/courses
// @Summary Create course
// @Description Create a course; an empty instructor defaults to "Admin"
// @Tags courses
// @Accept json
// @Produce json
// @Param course body models.CourseResource true "Course"
// @Success 201 {object} models.CourseResource
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /courses [post]
func (h *APICourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var resource models.CourseResource
	if err := h.decodeJSON(r, &resource); err != nil {
		h.respondServiceError(w, r, err, "invalid request body")
		return
	}

	resource = trimCourse(resource)
	if err := h.validator.Struct(resource); err != nil {
		h.respondServiceError(w, r, err, "invalid course")
		return
	}

	course := resource.ToCourse()
	course.ID = 0
	if err := h.store.Create(r.Context(), course); err != nil {
		h.respondServiceError(w, r, err, "failed to create course")
		return
	}

	h.respondJSON(w, http.StatusCreated, models.NewCourseResource(course))
}

// Update handles PUT /api/courses/{id}
// @Summary Replace course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param course body models.CourseResource true "Course"
// @Success 200 {object} models.CourseResource
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /courses/{id} [put]
func (h *APICourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err, "invalid id")
		return
	}

	var resource models.CourseResource
	if err := h.decodeJSON(r, &resource); err != nil {
		h.respondServiceError(w, r, err, "invalid request body")
		return
	}

	resource = trimCourse(resource)
	if err := h.validator.Struct(resource); err != nil {
		h.respondServiceError(w, r, err, "invalid course")
		return
	}

	course := resource.ToCourse()
	course.ID = id
	if err := h.store.Update(r.Context(), course); err != nil {
		h.respondServiceError(w, r, err, "failed to update course")
		return
	}

	h.respondJSON(w, http.StatusOK, models.NewCourseResource(course))
}

// PartialUpdate handles PATCH /api/courses/{id}
// @Summary Update course fields
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param course body models.CoursePatch true "Fields to change"
// @Success 200 {object} models.CourseResource
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /courses/{id} [patch]
func (h *APICourseHandler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err, "invalid id")
		return
	}

	var patch models.CoursePatch
	if err := h.decodeJSON(r, &patch); err != nil {
		h.respondServiceError(w, r, err, "invalid request body")
		return
	}

	course, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to get course")
		return
	}

	resource := models.NewCourseResource(course)
	if patch.Title != nil {
		resource.Title = *patch.Title
	}
	if patch.Description != nil {
		resource.Description = *patch.Description
	}
	if patch.Instructor != nil {
		resource.Instructor = *patch.Instructor
	}

	resource = trimCourse(resource)
	if err := h.validator.Struct(resource); err != nil {
		h.respondServiceError(w, r, err, "invalid course")
		return
	}

	updated := resource.ToCourse()
	if err := h.store.Update(r.Context(), updated); err != nil {
		h.respondServiceError(w, r, err, "failed to update course")
		return
	}

	h.respondJSON(w, http.StatusOK, models.NewCourseResource(updated))
}

// Delete handles DELETE /api/courses/{id}
// @Summary Delete course
// @Description Delete a course and its enrollments
// @Tags courses
// @Param id path int true "Course ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Security ApiKeyAuth
// @Router /courses/{id} [delete]
func (h *APICourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondServiceError(w, r, err, "invalid id")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, "failed to delete course")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func trimCourse(c models.CourseResource) models.CourseResource {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.Instructor = strings.TrimSpace(c.Instructor)
	return c
}
