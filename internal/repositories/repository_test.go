package repositories

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupMockDB creates a mock database and a development logger
func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *zap.Logger, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, mock, logger, cleanup
}

func TestNewRepositories(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db := &sql.DB{}

	users := NewUserRepository(db, logger)
	courses := NewCourseRepository(db, logger)
	enrollments := NewEnrollmentRepository(db, logger)

	assert.Equal(t, db, users.db)
	assert.Equal(t, logger, users.logger)
	assert.Equal(t, db, courses.db)
	assert.Equal(t, logger, courses.logger)
	assert.Equal(t, db, enrollments.db)
	assert.Equal(t, logger, enrollments.logger)
}
