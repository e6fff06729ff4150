package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/studydeck/studydeck-api/internal/exam"
	"github.com/studydeck/studydeck-api/internal/export"
	"github.com/studydeck/studydeck-api/internal/service"
	"github.com/studydeck/studydeck-api/internal/service/auth"
	"github.com/studydeck/studydeck-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. Keeping
// the mapping in one place prevents handlers from leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrNotEnrolled),
		errors.Is(err, exam.ErrSessionNotFound):
		return http.StatusNotFound

	// Conflict errors. Exam lifecycle violations are conflicts with the
	// session's current state, not bad request payloads.
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, exam.ErrAlreadyStarted),
		errors.Is(err, exam.ErrNotInProgress),
		errors.Is(err, exam.ErrNotFinished),
		errors.Is(err, exam.ErrNotRevealed):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, exam.ErrEmptyPool),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest

	// Quota errors
	case errors.Is(err, service.ErrDailyLimitReached):
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly message for the
// error. Internal details stay in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"
	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, store.ErrReviewStateNotFound),
		errors.Is(err, service.ErrNotEnrolled):
		return "Card is not enrolled for study"
	case errors.Is(err, exam.ErrSessionNotFound):
		return "Exam session not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"
	case errors.Is(err, exam.ErrAlreadyStarted):
		return "Exam session already started"
	case errors.Is(err, exam.ErrNotInProgress):
		return "Exam session is not in progress"
	case errors.Is(err, exam.ErrNotFinished):
		return "Exam session is not finished"
	case errors.Is(err, exam.ErrNotRevealed):
		return "Reveal the answer before grading it"

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case errors.Is(err, exam.ErrEmptyPool):
		return "No cards available for an exam"
	case errors.Is(err, export.ErrUnknownFormat):
		return "Unknown export format"

	// Quota errors
	case errors.Is(err, service.ErrDailyLimitReached):
		return "Daily card generation limit reached"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError reduces a validator error to a user-friendly
// message without echoing submitted values back.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'LoginRequest.Email' Error:Field validation for
		// 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly messages.
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
