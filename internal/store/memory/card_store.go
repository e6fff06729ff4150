package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/store"
)

// cardStore is the CardStore view over the shared in-memory state.
type cardStore struct {
	m *Store

	// lockHeld marks views built inside Run, whose callback already
	// holds the write lock.
	lockHeld bool
}

var _ store.CardStore = (*cardStore)(nil)

func (s *cardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	unlock := s.m.lock(s.lockHeld)
	defer unlock()

	// Validate the whole batch before inserting anything so a bad card
	// leaves no partial batch behind.
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	for _, card := range cards {
		copied := *card
		s.m.cards[card.ID] = &copied
		s.m.cardOrder = append(s.m.cardOrder, card.ID)
	}
	return nil
}

func (s *cardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	card, ok := s.m.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (s *cardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	cards := make([]*domain.Card, 0)
	for _, id := range s.m.cardOrder {
		card := s.m.cards[id]
		if card.DeckID == deckID {
			copied := *card
			cards = append(cards, &copied)
		}
	}
	return cards, nil
}

func (s *cardStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	cards := make([]*domain.Card, 0)
	for _, id := range s.m.cardOrder {
		card := s.m.cards[id]
		if card.UserID == userID {
			copied := *card
			cards = append(cards, &copied)
		}
	}
	return cards, nil
}

func (s *cardStore) UpdateText(ctx context.Context, id uuid.UUID, question, answer string) error {
	unlock := s.m.lock(s.lockHeld)
	defer unlock()

	card, ok := s.m.cards[id]
	if !ok {
		return store.ErrCardNotFound
	}

	if err := card.UpdateText(question, answer); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	return nil
}

func (s *cardStore) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.m.lock(s.lockHeld)
	defer unlock()

	if _, ok := s.m.cards[id]; !ok {
		return store.ErrCardNotFound
	}

	delete(s.m.cards, id)
	s.m.cardOrder = removeID(s.m.cardOrder, id)

	// Cascade to review state, as the postgres schema does.
	if _, enrolled := s.m.reviews[id]; enrolled {
		delete(s.m.reviews, id)
		s.m.reviewOrder = removeID(s.m.reviewOrder, id)
	}
	return nil
}

func (s *cardStore) CountCreatedSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	count := 0
	for _, card := range s.m.cards {
		if card.UserID == userID && !card.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// WithTx is a no-op for the memory backend; its atomic scope is Run.
func (s *cardStore) WithTx(tx *sql.Tx) store.CardStore { return s }
