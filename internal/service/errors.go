package service

import "errors"

var (
	ErrMissingFields      = errors.New("missing email or password")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password is not strong enough")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrMissingToken       = errors.New("missing token")
	ErrTokenNotFound      = errors.New("token not found or already used")
	ErrUserNotFound       = errors.New("user not found")
	ErrOAuthNoEmail       = errors.New("oauth identity has no email")
	ErrOAuthInvalid       = errors.New("oauth data invalid")
)
