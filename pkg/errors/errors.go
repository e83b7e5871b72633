package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidCurrentPassword  = errors.New("current password is incorrect")
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrInsufficientPermissions = errors.New("forbidden")

	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	ErrUserInactive      = errors.New("account is deactivated")
	ErrEmailInUse        = errors.New("email already in use")
	ErrUnknownEmail      = errors.New("user with this email does not exist")

	ErrResetTokenInvalid = errors.New("invalid or expired reset token")

	ErrAddressNotFound        = errors.New("address not found")
	ErrDefaultAddressConflict = errors.New("another default address was set concurrently, please retry")
)

// Error codes carried by AppError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeBadRequest = "BAD_REQUEST"
)

type AppError struct {
	Code    string
	Message string
	Err     error
	// Fields maps a json field name to a human readable problem.
	Fields map[string]string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
	}
}
