package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lmsportal/backend/internal/auth"
	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Credential limits, matching the users.username column and the bcrypt input limit
const (
	maxUsernameLength = 150
	maxPasswordBytes  = 72
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user, its ID is set on success.
	//
	// If the username is taken, models.ErrConstraintViolation is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByUsername retrieves a user by username.
	//
	// If user with such username does not exist, models.ErrNotFound will be returned together with "nil" value.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, models.ErrNotFound will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method ExistsByUsername checks if a user with such username exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// AuthMetrics records authentication events
type AuthMetrics interface {
	RecordRegistration()
	RecordLogin(success bool)
}

// authService implements user registration and session token handling
type authService struct {
	userRepo       UserRepository
	tokenGenerator *auth.TokenGenerator
	metrics        AuthMetrics
	logger         *zap.Logger
	hashCost       int
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	tokenGenerator *auth.TokenGenerator,
	metrics AuthMetrics,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		tokenGenerator: tokenGenerator,
		metrics:        metrics,
		logger:         logger,
		hashCost:       bcrypt.DefaultCost,
	}
}

// Register creates a new non-admin user account
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	user, err := s.createUser(ctx, req.Username, req.Password, false)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRegistration()
	s.logger.Info("user registered", zap.Int("userId", user.ID), zap.String("username", user.Username))
	return user, nil
}

// EnsureAdmin creates an admin account with the given credentials if the username is free.
//
// It reports whether an account was created.
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.createUser(ctx, username, password, true)
	if errors.Is(err, models.ErrDuplicateUser) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to ensure admin account: %w", err)
	}

	s.logger.Info("admin account created", zap.String("username", strings.TrimSpace(username)))
	return true, nil
}

func (s *authService) createUser(ctx context.Context, username, password string, isAdmin bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", models.ErrValidation)
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: username must be at most %d characters", models.ErrValidation, maxUsernameLength)
	}
	// bcrypt only accepts inputs up to 72 bytes
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", models.ErrValidation, maxPasswordBytes)
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicateUser, username)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		IsAdmin:      isAdmin,
	}

	// The unique constraint decides concurrent registrations of the same name
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrConstraintViolation) {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateUser, username)
		}
		return nil, err
	}

	return user, nil
}

// Authenticate verifies credentials and issues a session token
func (s *authService) Authenticate(ctx context.Context, req *models.LoginRequest) (*models.SessionToken, error) {
	session, err := s.authenticate(ctx, strings.TrimSpace(req.Username), req.Password)
	s.metrics.RecordLogin(err == nil)
	return session, err
}

func (s *authService) authenticate(ctx context.Context, username, password string) (*models.SessionToken, error) {
	if username == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenGenerator.Generate(user.ID)
	if err != nil {
		s.logger.Error("failed to generate session token", zap.Error(err), zap.Int("userId", user.ID))
		return nil, err
	}

	return &models.SessionToken{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Verify validates a session token and returns the user it belongs to
func (s *authService) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", models.ErrInvalidToken)
	}

	userID, err := s.tokenGenerator.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d no longer exists", models.ErrInvalidToken, userID)
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}
