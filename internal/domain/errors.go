package domain

import "errors"

var (
	ErrUnknownProtocol = errors.New("unknown fasting protocol")
	ErrFastInProgress  = errors.New("a fast is already in progress")
	ErrInvalidBackdate = errors.New("backdate minutes must not be negative")
	ErrInvalidAmount   = errors.New("hydration amount must be positive")
	ErrSecretNotFound  = errors.New("secret not found")
)
