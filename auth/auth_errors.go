package auth

import "errors"

var (
	ErrEmailRequired       = errors.New("email and password are required")
	ErrPasswordsDontMatch  = errors.New("passwords do not match")
	ErrCurrentPasswordBad  = errors.New("current password is incorrect")
	ErrSessionUserNotFound = errors.New("session user not found")
)
