package model

import "errors"

var (
	// Session related errors
	ErrSessionNotFound = errors.New("session not found")
	ErrNoEmailClaim    = errors.New("token carries no email claim")

	// Upstream resource errors
	ErrFPONotFound = errors.New("fpo not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
