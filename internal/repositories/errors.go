// Package repositories implements the credential store on top of MySQL and MongoDB
package repositories

import "errors"

// Errors shared by every credential store driver
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already exists")
)
