package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lmsportal/backend/internal/database"
	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
)

type enrollmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB, logger *zap.Logger) *enrollmentRepository {
	return &enrollmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new enrollment and sets its ID.
//
// An existing (user, course) pair is reported as models.ErrConstraintViolation,
// a missing user or course as models.ErrNotFound.
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, course_id)
		VALUES (?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return r.mapWriteError(err, "failed to create enrollment", enrollment)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	enrollment.ID = int(id)
	return nil
}

// GetAll retrieves all enrollments in insertion order
func (r *enrollmentRepository) GetAll(ctx context.Context) ([]models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id
		FROM enrollments
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query enrollments", zap.Error(err))
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []models.Enrollment{}
	for rows.Next() {
		var enrollment models.Enrollment
		if err := rows.Scan(&enrollment.ID, &enrollment.UserID, &enrollment.CourseID); err != nil {
			r.logger.Error("failed to scan enrollment", zap.Error(err))
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return enrollments, nil
}

// GetByID retrieves an enrollment by its ID
func (r *enrollmentRepository) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id
		FROM enrollments
		WHERE id = ?
		LIMIT 1
	`

	var enrollment models.Enrollment
	err := r.db.QueryRowContext(ctx, query, id).Scan(&enrollment.ID, &enrollment.UserID, &enrollment.CourseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: enrollment %d", models.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("failed to query enrollment by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to get enrollment by id: %w", err)
	}

	return &enrollment, nil
}

// GetByUserAndCourse retrieves the enrollment of a user in a course
func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id
		FROM enrollments
		WHERE user_id = ? AND course_id = ?
		LIMIT 1
	`

	var enrollment models.Enrollment
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(&enrollment.ID, &enrollment.UserID, &enrollment.CourseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: enrollment of user %d in course %d", models.ErrNotFound, userID, courseID)
	}
	if err != nil {
		r.logger.Error("failed to query enrollment by user and course", zap.Error(err),
			zap.Int("userId", userID), zap.Int("courseId", courseID))
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	return &enrollment, nil
}

// GetByUserWithCourses retrieves the enrollments of a user joined with course data, in insertion order
func (r *enrollmentRepository) GetByUserWithCourses(ctx context.Context, userID int) ([]models.EnrollmentWithCourse, error) {
	query := `
		SELECT e.id, c.id, c.title, c.description, c.instructor
		FROM enrollments e
		INNER JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = ?
		ORDER BY e.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to query user enrollments", zap.Error(err), zap.Int("userId", userID))
		return nil, fmt.Errorf("failed to query user enrollments: %w", err)
	}
	defer rows.Close()

	items := []models.EnrollmentWithCourse{}
	for rows.Next() {
		var item models.EnrollmentWithCourse
		if err := rows.Scan(
			&item.EnrollmentID,
			&item.Course.ID,
			&item.Course.Title,
			&item.Course.Description,
			&item.Course.Instructor,
		); err != nil {
			r.logger.Error("failed to scan user enrollment", zap.Error(err))
			return nil, fmt.Errorf("failed to scan user enrollment: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// Update changes the user and course of an existing enrollment
func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		UPDATE enrollments
		SET user_id = ?, course_id = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, enrollment.UserID, enrollment.CourseID, enrollment.ID)
	if err != nil {
		return r.mapWriteError(err, "failed to update enrollment", enrollment)
	}

	return r.requireAffected(result, enrollment.ID)
}

// Delete removes an enrollment
func (r *enrollmentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete enrollment", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	return r.requireAffected(result, id)
}

// mapWriteError translates constraint failures into the error taxonomy
func (r *enrollmentRepository) mapWriteError(err error, msg string, enrollment *models.Enrollment) error {
	switch {
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: user %d is already enrolled in course %d",
			models.ErrConstraintViolation, enrollment.UserID, enrollment.CourseID)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: user %d or course %d", models.ErrNotFound, enrollment.UserID, enrollment.CourseID)
	}
	r.logger.Error(msg, zap.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}

func (r *enrollmentRepository) requireAffected(result sql.Result, id int) error {
	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("failed to get rows affected", zap.Error(err))
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: enrollment %d", models.ErrNotFound, id)
	}
	return nil
}
