package user

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the given email
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when creating a user whose email is taken
	ErrUserExists = errors.New("user already exists")
)
