package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/domain/leitner"
	"github.com/studydeck/studydeck-api/internal/platform/logger"
	"github.com/studydeck/studydeck-api/internal/store"
)

// DueCard pairs a card with its current review state for presentation in a
// study session.
type DueCard struct {
	Card  *domain.Card        `json:"card"`
	State *domain.ReviewState `json:"state"`
}

// StudyService provides spaced repetition study operations on top of the
// Leitner scheduler.
type StudyService interface {
	// Enroll adds a card to the user's study pool with default scheduling
	// state. Enrolling an already-enrolled card is a no-op, not an error;
	// existing progress is never reset.
	// Returns ErrNotOwned if the card belongs to a different user.
	Enroll(ctx context.Context, userID, cardID uuid.UUID) error

	// DueCards returns the user's cards due for review at the given time,
	// paired with their review states, in enrollment order. The due
	// comparison is date-granular.
	DueCards(ctx context.Context, userID uuid.UUID, now time.Time) ([]*DueCard, error)

	// RecordOutcome records a review rated with the given difficulty and
	// returns the updated state. It fails with ErrNotEnrolled if the card
	// was never enrolled; it never auto-enrolls.
	RecordOutcome(ctx context.Context, userID, cardID uuid.UUID, difficulty int) (*domain.ReviewState, error)
}

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	stores    store.Stores
	txRunner  store.TxRunner
	scheduler leitner.Service
	logger    *slog.Logger
	timeFunc  func() time.Time
}

// NewStudyService creates a new StudyService.
func NewStudyService(
	stores store.Stores,
	txRunner store.TxRunner,
	scheduler leitner.Service,
	logger *slog.Logger,
) (StudyService, error) {
	if scheduler == nil {
		return nil, errors.New("scheduler cannot be nil")
	}
	if txRunner == nil {
		return nil, errors.New("txRunner cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		stores:    stores,
		txRunner:  txRunner,
		scheduler: scheduler,
		logger:    logger.With(slog.String("component", "study_service")),
		timeFunc:  time.Now,
	}, nil
}

// Enroll implements StudyService.Enroll
func (s *studyServiceImpl) Enroll(ctx context.Context, userID, cardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.stores.Cards.GetByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card.UserID != userID {
		return ErrNotOwned
	}

	state, err := domain.NewReviewState(userID, cardID)
	if err != nil {
		return err
	}

	err = s.stores.Reviews.Create(ctx, state)
	if err != nil {
		// Idempotent: a second enrollment leaves the existing progress alone.
		if store.IsDuplicateError(err) {
			log.Debug("card already enrolled, keeping existing state",
				slog.String("card_id", cardID.String()))
			return nil
		}
		return err
	}

	log.Info("card enrolled for study",
		slog.String("card_id", cardID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// DueCards implements StudyService.DueCards
func (s *studyServiceImpl) DueCards(ctx context.Context, userID uuid.UUID, now time.Time) ([]*DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	states, err := s.stores.Reviews.ListDue(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	due := make([]*DueCard, 0, len(states))
	for _, state := range states {
		card, err := s.stores.Cards.GetByID(ctx, state.CardID)
		if err != nil {
			// A dangling state points at a deleted card; skip it rather
			// than fail the whole listing.
			if store.IsNotFoundError(err) {
				log.Warn("review state references missing card",
					slog.String("card_id", state.CardID.String()))
				continue
			}
			return nil, err
		}
		due = append(due, &DueCard{Card: card, State: state})
	}

	log.Debug("listed due cards",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(due)))
	return due, nil
}

// RecordOutcome implements StudyService.RecordOutcome
func (s *studyServiceImpl) RecordOutcome(ctx context.Context, userID, cardID uuid.UUID, difficulty int) (*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.ReviewState
	err := s.txRunner.Run(ctx, func(ctx context.Context, tx store.Stores) error {
		state, err := tx.Reviews.Get(ctx, userID, cardID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrNotEnrolled
			}
			return err
		}

		next, err := s.scheduler.RecordOutcome(state, difficulty, s.timeFunc())
		if err != nil {
			return err
		}

		if err := tx.Reviews.Update(ctx, next); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("review outcome recorded",
		slog.String("card_id", cardID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("difficulty", updated.Difficulty),
		slog.Int("times_reviewed", updated.TimesReviewed))
	return updated, nil
}
