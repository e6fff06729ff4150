package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// This is typically returned when a user attempts to access or modify a resource they don't own.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrDailyLimitReached indicates the user has exhausted their daily card
	// generation quota. Premium users are exempt from the quota.
	// API layer should map this to HTTP 429 Too Many Requests.
	ErrDailyLimitReached = errors.New("daily card generation limit reached")

	// ErrNotEnrolled indicates an attempt to record a study outcome for a
	// card that has never been enrolled for study. Recording outcomes never
	// auto-enrolls; the caller must enroll the card first.
	// API layer should map this to HTTP 404 Not Found.
	ErrNotEnrolled = errors.New("card is not enrolled for study")
)
