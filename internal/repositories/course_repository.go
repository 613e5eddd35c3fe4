package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
)

type courseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB, logger *zap.Logger) *courseRepository {
	return &courseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new course and sets its ID
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (title, description, instructor)
		VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, course.Title, course.Description, course.Instructor)
	if err != nil {
		r.logger.Error("failed to create course", zap.Error(err))
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	course.ID = int(id)
	return nil
}

// GetAll retrieves all courses in insertion order
func (r *courseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	query := `
		SELECT id, title, description, instructor
		FROM courses
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query courses", zap.Error(err))
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []models.Course{}
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(&course.ID, &course.Title, &course.Description, &course.Instructor); err != nil {
			r.logger.Error("failed to scan course", zap.Error(err))
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, nil
}

// GetByID retrieves a course by its ID
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `
		SELECT id, title, description, instructor
		FROM courses
		WHERE id = ?
		LIMIT 1
	`

	var course models.Course
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Instructor,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: course %d", models.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("failed to query course by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return &course, nil
}

// Update overwrites every field of an existing course
func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET title = ?, description = ?, instructor = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, course.Title, course.Description, course.Instructor, course.ID)
	if err != nil {
		r.logger.Error("failed to update course", zap.Error(err), zap.Int("id", course.ID))
		return fmt.Errorf("failed to update course: %w", err)
	}

	return r.requireAffected(result, course.ID)
}

// Delete removes a course; its enrollments are removed by the ON DELETE CASCADE constraint
func (r *courseRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete course", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to delete course: %w", err)
	}

	return r.requireAffected(result, id)
}

func (r *courseRepository) requireAffected(result sql.Result, id int) error {
	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("failed to get rows affected", zap.Error(err))
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: course %d", models.ErrNotFound, id)
	}
	return nil
}
