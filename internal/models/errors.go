package models

import "errors"

// Error taxonomy shared by repositories, services and handlers.
//
// Callers add context with fmt.Errorf("%w: ...", ErrX) and match with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrDuplicateUser       = errors.New("username already exists")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrNotFound            = errors.New("not found")
	ErrPermissionDenied    = errors.New("permission denied")
)
