package memory

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/store"
)

// reviewStore is the ReviewStateStore view over the shared in-memory state.
type reviewStore struct {
	m *Store

	// lockHeld marks views built inside Run, whose callback already
	// holds the write lock.
	lockHeld bool
}

var _ store.ReviewStateStore = (*reviewStore)(nil)

func (s *reviewStore) Create(ctx context.Context, state *domain.ReviewState) error {
	unlock := s.m.lock(s.lockHeld)
	defer unlock()

	if err := state.Validate(); err != nil {
		return err
	}

	if _, exists := s.m.reviews[state.CardID]; exists {
		return store.ErrDuplicate
	}

	copied := *state
	s.m.reviews[state.CardID] = &copied
	s.m.reviewOrder = append(s.m.reviewOrder, state.CardID)
	return nil
}

func (s *reviewStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	state, ok := s.m.reviews[cardID]
	if !ok || state.UserID != userID {
		return nil, store.ErrReviewStateNotFound
	}
	copied := *state
	return &copied, nil
}

func (s *reviewStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*domain.ReviewState, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	due := make([]*domain.ReviewState, 0)
	for _, cardID := range s.m.reviewOrder {
		state := s.m.reviews[cardID]
		if state.UserID == userID && state.IsDue(now) {
			copied := *state
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (s *reviewStore) Update(ctx context.Context, state *domain.ReviewState) error {
	unlock := s.m.lock(s.lockHeld)
	defer unlock()

	if err := state.Validate(); err != nil {
		return err
	}

	existing, ok := s.m.reviews[state.CardID]
	if !ok || existing.UserID != state.UserID {
		return store.ErrReviewStateNotFound
	}

	copied := *state
	s.m.reviews[state.CardID] = &copied
	return nil
}

// WithTx is a no-op for the memory backend; its atomic scope is Run.
func (s *reviewStore) WithTx(tx *sql.Tx) store.ReviewStateStore { return s }
