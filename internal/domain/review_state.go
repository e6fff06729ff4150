package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for ReviewState
var (
	ErrEmptyReviewUserID = errors.New("review state user ID cannot be empty")
	ErrEmptyReviewCardID = errors.New("review state card ID cannot be empty")
	ErrInvalidDifficulty = errors.New("difficulty must be between 1 and 5")
	ErrNegativeReviews   = errors.New("times reviewed cannot be negative")
)

// Difficulty bounds for the Leitner buckets. 1 is the hardest bucket
// (most recently failed), 5 the easiest (best known).
const (
	MinDifficulty = 1
	MaxDifficulty = 5

	// DefaultDifficulty is assigned when a card first enters the study pool.
	DefaultDifficulty = 3

	// MasteredDifficulty is the threshold at or above which a card is
	// reported as mastered. Mastery is derived, never stored.
	MasteredDifficulty = 4
)

// ReviewState tracks a user's spaced repetition state for a single card.
// It exists one-to-one with a card once the card enters the study pool;
// "not yet enrolled" is represented by the absence of a ReviewState, never
// by a sentinel value.
type ReviewState struct {
	UserID        uuid.UUID `json:"user_id"`
	CardID        uuid.UUID `json:"card_id"`
	Difficulty    int       `json:"difficulty"`     // Current Leitner bucket, 1..5
	NextReviewAt  time.Time `json:"next_review_at"` // When the card is next due
	TimesReviewed int       `json:"times_reviewed"` // Total recorded outcomes
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewReviewState creates the review state for a card entering the study
// pool: default difficulty, immediately due, zero reviews.
func NewReviewState(userID, cardID uuid.UUID) (*ReviewState, error) {
	now := time.Now().UTC()
	state := &ReviewState{
		UserID:        userID,
		CardID:        cardID,
		Difficulty:    DefaultDifficulty,
		NextReviewAt:  now, // Due immediately
		TimesReviewed: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

// Validate checks if the ReviewState has valid data.
// Returns an error if any field fails validation.
func (s *ReviewState) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyReviewUserID
	}

	if s.CardID == uuid.Nil {
		return ErrEmptyReviewCardID
	}

	if s.Difficulty < MinDifficulty || s.Difficulty > MaxDifficulty {
		return ErrInvalidDifficulty
	}

	if s.TimesReviewed < 0 {
		return ErrNegativeReviews
	}

	return nil
}

// IsDue reports whether the card is due at the given time. The comparison is
// at date granularity: a card due at any point today remains due all day,
// regardless of the time of day it was scheduled.
func (s *ReviewState) IsDue(now time.Time) bool {
	due := s.NextReviewAt.UTC()
	today := now.UTC()

	dueDate := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	nowDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	return !dueDate.After(nowDate)
}

// Mastered reports whether the card currently counts as mastered.
func (s *ReviewState) Mastered() bool {
	return s.Difficulty >= MasteredDifficulty
}
