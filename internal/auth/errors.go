package auth

import "errors"

var (
	// ErrUnauthorized covers missing/invalid/expired tokens and dead sessions.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrForbidden means the principal is authenticated but lacks permission.
	ErrForbidden = errors.New("auth: insufficient permissions")
	// ErrInvalidCredentials is returned for unknown email, wrong password and
	// inactive accounts alike, so login failures cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	// ErrInvalidInput indicates a validation failure.
	ErrInvalidInput = errors.New("auth: invalid input")
	// ErrConflict indicates a uniqueness violation (email, role assignment, rule).
	ErrConflict = errors.New("auth: already exists")
	// ErrNotFound indicates a missing referenced entity.
	ErrNotFound = errors.New("auth: not found")
	// ErrUnavailable indicates a storage/dependency failure. The core never
	// retries; retry policy belongs to the caller.
	ErrUnavailable = errors.New("auth: storage unavailable")
)
