package memory

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/store"
)

// deckStore is the DeckStore view over the shared in-memory state.
type deckStore struct {
	m *Store

	// lockHeld marks views built inside Run, whose callback already
	// holds the write lock.
	lockHeld bool
}

var _ store.DeckStore = (*deckStore)(nil)

func (s *deckStore) Create(ctx context.Context, deck *domain.Deck) error {
	unlock := s.m.lock(s.lockHeld)
	defer unlock()

	if err := deck.Validate(); err != nil {
		return err
	}

	copied := *deck
	s.m.decks[deck.ID] = &copied
	s.m.deckOrder = append(s.m.deckOrder, deck.ID)
	return nil
}

func (s *deckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	deck, ok := s.m.decks[id]
	if !ok {
		return nil, store.ErrDeckNotFound
	}
	copied := *deck
	return &copied, nil
}

func (s *deckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	unlock := s.m.rlock(s.lockHeld)
	defer unlock()

	decks := make([]*domain.Deck, 0)
	for _, id := range s.m.deckOrder {
		deck := s.m.decks[id]
		if deck.UserID == userID {
			copied := *deck
			decks = append(decks, &copied)
		}
	}
	return decks, nil
}

// Delete removes the deck along with its cards and their review states,
// mirroring the ON DELETE CASCADE behavior of the postgres schema.
func (s *deckStore) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.m.lock(s.lockHeld)
	defer unlock()

	if _, ok := s.m.decks[id]; !ok {
		return store.ErrDeckNotFound
	}

	delete(s.m.decks, id)
	s.m.deckOrder = removeID(s.m.deckOrder, id)

	for cardID, card := range s.m.cards {
		if card.DeckID != id {
			continue
		}
		delete(s.m.cards, cardID)
		s.m.cardOrder = removeID(s.m.cardOrder, cardID)
		if _, enrolled := s.m.reviews[cardID]; enrolled {
			delete(s.m.reviews, cardID)
			s.m.reviewOrder = removeID(s.m.reviewOrder, cardID)
		}
	}
	return nil
}

// WithTx is a no-op for the memory backend; its atomic scope is Run.
func (s *deckStore) WithTx(tx *sql.Tx) store.DeckStore { return s }
