package services

import (
	"errors"
	"strings"
)

// Errors returned by the authentication and administration services
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrAccountNotFound    = errors.New("user not found or inactive")
)

// ValidationError collects every failed registration rule
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
