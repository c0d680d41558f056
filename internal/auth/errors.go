package auth

import "errors"

var (
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrNotFound           = errors.New("auth: not found")
	ErrConflict           = errors.New("auth: resource conflict")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrAccountDeactivated = errors.New("auth: account is deactivated")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
	ErrForbidden          = errors.New("auth: insufficient permissions")
)
