package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lmsportal/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestSQLite opens a migrated SQLite database in a temporary directory
func openTestSQLite(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "lms.db")
	return cfg
}

func TestConnect_EmptyDSN(t *testing.T) {
	db, err := Connect(context.Background(), config.DriverSQLite, "")

	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestRunMigrations_SQLite(t *testing.T) {
	cfg := openTestSQLite(t)
	ctx := context.Background()

	db, err := Connect(ctx, cfg.Database.Driver, cfg.DSN())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(db, cfg.Database.Driver))
	// Second run is a no-op
	require.NoError(t, RunMigrations(db, cfg.Database.Driver))

	for _, table := range []string{"users", "courses", "enrollments"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s must exist", table)
	}

	require.NoError(t, RollbackMigrations(db, cfg.Database.Driver))

	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'users'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLiteConstraintErrors(t *testing.T) {
	cfg := openTestSQLite(t)
	ctx := context.Background()

	db, err := Connect(ctx, cfg.Database.Driver, cfg.DSN())
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(db, cfg.Database.Driver))

	_, err = db.ExecContext(ctx, `INSERT INTO users (username, password_hash, is_admin) VALUES ('bob', 'x', 0)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO users (username, password_hash, is_admin) VALUES ('bob', 'y', 0)`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	_, err = db.ExecContext(ctx, `INSERT INTO enrollments (user_id, course_id) VALUES (1, 999)`)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(err))
}

func TestMySQLConstraintErrors(t *testing.T) {
	dup := fmt.Errorf("failed to insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}

	assert.True(t, IsUniqueViolation(dup))
	assert.False(t, IsForeignKeyViolation(dup))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(fk))
	assert.False(t, IsUniqueViolation(errors.New("plain error")))
}

// TestRunMigrations_MySQL runs against a real server when TEST_DB_* variables are configured
func TestRunMigrations_MySQL(t *testing.T) {
	cfg, err := config.LoadTestConfig()
	require.NoError(t, err)
	if cfg.DSN() == "" {
		t.Skip("TEST_DB_* variables are not set")
	}

	db, err := Connect(context.Background(), cfg.Database.Driver, cfg.DSN())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(db, cfg.Database.Driver))
}
