package leitner

import (
	"errors"
	"time"

	"github.com/studydeck/studydeck-api/internal/domain"
)

// Common errors
var (
	ErrNilState          = errors.New("review state cannot be nil")
	ErrInvalidDifficulty = errors.New("difficulty must be between 1 and 5")
)

// Service defines the scheduling operations of the Leitner system.
// Implementations are pure: they return new ReviewState values and never
// mutate their inputs, so callers can persist or discard results freely.
type Service interface {
	// RecordOutcome computes the state following a review rated with the
	// given difficulty. It reassigns the bucket, increments the review
	// counter, and schedules the next review at now + interval(difficulty).
	RecordOutcome(
		state *domain.ReviewState,
		difficulty int,
		now time.Time,
	) (*domain.ReviewState, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduler with the standard interval table.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduler with a custom interval table.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

// RecordOutcome implements the Service interface.
//
// The difficulty supplied here is an absolute rating given fresh on every
// review, not an adjustment of the previous bucket: a card rated hard
// immediately after being rated easy snaps straight back to a 1-day
// interval. The only memory the scheme keeps is the single stored
// difficulty value.
func (s *defaultService) RecordOutcome(
	state *domain.ReviewState,
	difficulty int,
	now time.Time,
) (*domain.ReviewState, error) {
	if state == nil {
		return nil, ErrNilState
	}

	if difficulty < domain.MinDifficulty || difficulty > domain.MaxDifficulty {
		return nil, ErrInvalidDifficulty
	}

	newState := &domain.ReviewState{
		UserID:        state.UserID,
		CardID:        state.CardID,
		Difficulty:    difficulty,
		NextReviewAt:  now.UTC().Add(s.params.Interval(difficulty)),
		TimesReviewed: state.TimesReviewed + 1,
		CreatedAt:     state.CreatedAt,
		UpdatedAt:     now.UTC(),
	}

	return newState, nil
}
