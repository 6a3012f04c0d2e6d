package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// Token and identity errors.
var (
	ErrUnauthenticated = errors.New("no token provided")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	// ErrInvalidID is returned by repositories when an id is not a valid
	// storage identifier.
	ErrInvalidID = errors.New("invalid id")
)
