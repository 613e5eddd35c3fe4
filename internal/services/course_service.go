package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
)

// CourseRepository is the interface that wraps methods for Course table data access
type CourseRepository interface {
	// Method Create inserts a new course into the database and sets its ID.
	Create(ctx context.Context, course *models.Course) error
	// Method GetAll retrieves all courses ordered by ID.
	//
	// An empty catalog is returned as an empty slice.
	GetAll(ctx context.Context) ([]models.Course, error)
	// Method GetByID retrieves a course by ID.
	//
	// If course with such ID does not exist, models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

// StructValidator validates tagged request structs
type StructValidator interface {
	// Method Struct returns models.ErrValidation describing every failed rule, or nil.
	Struct(s any) error
}

// CourseMetrics records catalog events
type CourseMetrics interface {
	RecordCourseCreated()
}

type courseService struct {
	courseRepo CourseRepository
	validator  StructValidator
	metrics    CourseMetrics
	logger     *zap.Logger
}

// NewCourseService creates a new course catalog service
func NewCourseService(courseRepo CourseRepository, validator StructValidator, metrics CourseMetrics, logger *zap.Logger) *courseService {
	return &courseService{
		courseRepo: courseRepo,
		validator:  validator,
		metrics:    metrics,
		logger:     logger,
	}
}

// ListCourses returns all courses in id order
func (s *courseService) ListCourses(ctx context.Context) ([]models.Course, error) {
	return s.courseRepo.GetAll(ctx)
}

// GetCourse returns a course by ID
func (s *courseService) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	return s.courseRepo.GetByID(ctx, id)
}

// CreateCourse creates a course on behalf of actor.
//
// Only admins may create courses. Title and description are required after trimming,
// an empty instructor becomes models.DefaultInstructor.
func (s *courseService) CreateCourse(ctx context.Context, actor *models.User, req *models.CreateCourseRequest) (*models.Course, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, fmt.Errorf("%w: only admins can create courses", models.ErrPermissionDenied)
	}

	resource := models.CourseResource{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Instructor:  strings.TrimSpace(req.Instructor),
	}
	if err := s.validator.Struct(resource); err != nil {
		return nil, err
	}

	course := resource.ToCourse()
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.metrics.RecordCourseCreated()
	s.logger.Info("course created", zap.Int("courseId", course.ID), zap.Int("actorId", actor.ID))
	return course, nil
}
