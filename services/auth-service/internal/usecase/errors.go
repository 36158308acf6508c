package usecase

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnverifiedAccount  = errors.New("account is not verified")
	ErrAccountSuspended   = errors.New("account is suspended")
	ErrInvalidToken       = errors.New("invalid confirmation code")
	ErrExpiredToken       = errors.New("confirmation code has expired")
	ErrAlreadyVerified    = errors.New("account is already verified")
	ErrAccountNotFound    = errors.New("account not found")

	// ErrDeliveryFailure is never returned as the error of a use case. It is reported
	// on the result so the caller knows the verification message may not have arrived.
	ErrDeliveryFailure = errors.New("verification message could not be delivered")
)
