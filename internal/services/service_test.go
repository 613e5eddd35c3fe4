package services

import (
	"context"
	"fmt"

	"github.com/lmsportal/backend/internal/models"
)

// mockUserRepository is an in-memory implementation of UserRepository
type mockUserRepository struct {
	users []*models.User

	// existsOverride forces ExistsByUsername to report false, simulating a lost race
	existsOverride bool
	existsErr      error
	createErr      error
	getErr         error
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: duplicate username", models.ErrConstraintViolation)
		}
	}
	user.ID = len(m.users) + 1
	stored := *user
	m.users = append(m.users, &stored)
	return nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			found := *u
			return &found, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.ID == id {
			found := *u
			return &found, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	if m.existsOverride {
		return false, nil
	}
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// mockCourseRepository is an in-memory implementation of CourseRepository
type mockCourseRepository struct {
	courses   []models.Course
	createErr error
	getErr    error
}

func (m *mockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	course.ID = len(m.courses) + 1
	m.courses = append(m.courses, *course)
	return nil
}

func (m *mockCourseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return append([]models.Course{}, m.courses...), nil
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, c := range m.courses {
		if c.ID == id {
			found := c
			return &found, nil
		}
	}
	return nil, models.ErrNotFound
}

// mockEnrollmentRepository is an in-memory implementation of EnrollmentRepository
type mockEnrollmentRepository struct {
	enrollments []models.Enrollment
	courses     *mockCourseRepository

	// hideFirstLookup makes the first GetByUserAndCourse miss, simulating a concurrent insert
	hideFirstLookup bool
	lookups         int
	createErr       error
	getErr          error
}

func (m *mockEnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, e := range m.enrollments {
		if e.UserID == enrollment.UserID && e.CourseID == enrollment.CourseID {
			return fmt.Errorf("%w: duplicate enrollment", models.ErrConstraintViolation)
		}
	}
	enrollment.ID = len(m.enrollments) + 1
	m.enrollments = append(m.enrollments, *enrollment)
	return nil
}

func (m *mockEnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	m.lookups++
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.hideFirstLookup && m.lookups == 1 {
		return nil, models.ErrNotFound
	}
	for _, e := range m.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			found := e
			return &found, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockEnrollmentRepository) GetByUserWithCourses(ctx context.Context, userID int) ([]models.EnrollmentWithCourse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	items := []models.EnrollmentWithCourse{}
	for _, e := range m.enrollments {
		if e.UserID != userID {
			continue
		}
		course, err := m.courses.GetByID(ctx, e.CourseID)
		if err != nil {
			return nil, err
		}
		items = append(items, models.EnrollmentWithCourse{EnrollmentID: e.ID, Course: *course})
	}
	return items, nil
}

// mockMetrics counts recorded events
type mockMetrics struct {
	registrations  int
	loginSuccess   int
	loginFailure   int
	enrollCreated  int
	enrollExisting int
	coursesCreated int
}

func (m *mockMetrics) RecordRegistration() { m.registrations++ }

func (m *mockMetrics) RecordLogin(success bool) {
	if success {
		m.loginSuccess++
		return
	}
	m.loginFailure++
}

func (m *mockMetrics) RecordEnrollment(created bool) {
	if created {
		m.enrollCreated++
		return
	}
	m.enrollExisting++
}

func (m *mockMetrics) RecordCourseCreated() { m.coursesCreated++ }
