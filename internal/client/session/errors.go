package session

import "errors"

var (
	// ErrRegistration: the gateway rejected a sign-up or returned no user.
	ErrRegistration = errors.New("registration failed")
	// ErrSessionEstablishment: sign-in was accepted but carried no usable
	// session (missing tokens or user).
	ErrSessionEstablishment = errors.New("session could not be established")
	ErrInvalidInput         = errors.New("invalid input")
)
