package user

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	ErrResetTokenNotFound = errors.New("password reset token not found or no longer valid")
)
