package service

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrConfigNotFound   = errors.New("configuration not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidDirection = errors.New("invalid direction")

	// Account errors
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUsernameLength     = errors.New("username must be 3-12 characters")
	ErrUsernameChars      = errors.New("username may only contain letters, digits, underscores or Chinese characters")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("wrong password")
	ErrUnauthorized       = errors.New("not logged in")
)
