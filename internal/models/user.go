package models

import "time"

// User represents an account of the portal
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never serialize password hash
	IsAdmin      bool   `json:"isAdmin"`
}

// RegisterRequest represents the registration form
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents the login form
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionToken is a signed session credential and its expiry time
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}
