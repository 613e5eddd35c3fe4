package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
)

// EnrollmentRepository is the interface that wraps methods for Enrollment table data access
type EnrollmentRepository interface {
	// Method Create inserts a new enrollment and sets its ID.
	//
	// An existing (user, course) pair is reported as models.ErrConstraintViolation.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	// Method GetByUserAndCourse retrieves the enrollment of a user in a course.
	//
	// If there is no such enrollment, models.ErrNotFound will be returned together with "nil" value.
	GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error)
	// Method GetByUserWithCourses retrieves the enrollments of a user joined with course data in insertion order.
	GetByUserWithCourses(ctx context.Context, userID int) ([]models.EnrollmentWithCourse, error)
}

// EnrollmentMetrics records enrollment events
type EnrollmentMetrics interface {
	RecordEnrollment(created bool)
}

type enrollmentService struct {
	enrollmentRepo EnrollmentRepository
	courseRepo     CourseRepository
	metrics        EnrollmentMetrics
	logger         *zap.Logger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(
	enrollmentRepo EnrollmentRepository,
	courseRepo CourseRepository,
	metrics EnrollmentMetrics,
	logger *zap.Logger,
) *enrollmentService {
	return &enrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		metrics:        metrics,
		logger:         logger,
	}
}

// Enroll enrolls actor in a course.
//
// Enrolling twice is not an error: the existing enrollment is returned with Created set to false.
func (s *enrollmentService) Enroll(ctx context.Context, actor *models.User, courseID int) (*models.EnrollResult, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: authentication required", models.ErrPermissionDenied)
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	existing, err := s.enrollmentRepo.GetByUserAndCourse(ctx, actor.ID, course.ID)
	if err == nil {
		s.metrics.RecordEnrollment(false)
		return &models.EnrollResult{Enrollment: existing, Course: course, Created: false}, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	enrollment := &models.Enrollment{UserID: actor.ID, CourseID: course.ID}
	err = s.enrollmentRepo.Create(ctx, enrollment)
	if errors.Is(err, models.ErrConstraintViolation) {
		// A concurrent request inserted the same pair
		existing, err = s.enrollmentRepo.GetByUserAndCourse(ctx, actor.ID, course.ID)
		if err != nil {
			return nil, err
		}
		s.metrics.RecordEnrollment(false)
		return &models.EnrollResult{Enrollment: existing, Course: course, Created: false}, nil
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordEnrollment(true)
	s.logger.Info("user enrolled", zap.Int("userId", actor.ID), zap.Int("courseId", course.ID))
	return &models.EnrollResult{Enrollment: enrollment, Course: course, Created: true}, nil
}

// ListForUser returns the enrollments of actor joined with course data
func (s *enrollmentService) ListForUser(ctx context.Context, actor *models.User) ([]models.EnrollmentWithCourse, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: authentication required", models.ErrPermissionDenied)
	}
	return s.enrollmentRepo.GetByUserWithCourses(ctx, actor.ID)
}
